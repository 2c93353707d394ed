// Package localserver serves the management API on a Unix domain socket.
//
// Access is controlled by file permissions on the socket (0600), so the
// router mounted here is normally built without token authentication.
// Two extra routes exist only on the socket:
//
//   - GET /local/status: process and socket information
//   - POST /local/shutdown: asks the agent to stop gracefully
package localserver
