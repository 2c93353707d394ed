// Package handler provides the HTTP handlers of the aranea management API.
//
// Routes:
//
//   - Settings: /api/settings, /api/settings/{save,reload,reset,raw},
//     /api/settings/endpoints
//   - Files: /api/fs/{list,read,write,delete,info}
//   - Device: /api/device/{info,restart}
//   - Ops: /health, /ready, /metrics
//
// Every handler that touches the settings store or its backend holds the
// handler mutex, so the store itself never sees concurrent callers.
package handler
