// Package connection talks to a running aranea-agent over its HTTP
// management API.
//
// Responses use the agent's envelope ({code, message, request_id, data}).
// Call unwraps data into the caller's value; a non-2xx status becomes an
// *APIError carrying the agent's error code.
package connection
