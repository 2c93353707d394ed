package handler

import (
	"time"

	"github.com/yndnr/aranea-go/internal/core/domain"
	"github.com/yndnr/aranea-go/internal/infra/buildinfo"
	"github.com/yndnr/aranea-go/internal/storage"
)

// Response is the standard API response envelope.
// All JSON responses use this format except /metrics and the raw blob.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// SettingsResponse is the body of the settings routes.
type SettingsResponse struct {
	Settings    *domain.ConfigRecord `json:"settings"`
	Fingerprint string               `json:"fingerprint"`
	Path        string               `json:"path"`
	Saved       bool                 `json:"saved"`
}

// SettingsPatch is the request body for PATCH /api/settings. Absent
// fields are left unchanged. Endpoints, when present, replaces the list.
type SettingsPatch struct {
	LocationName  *string   `json:"locationName,omitempty"`
	NetworkName   *string   `json:"networkName,omitempty"`
	MainSSID      *string   `json:"mainSSID,omitempty"`
	MainPass      *string   `json:"mainPass,omitempty"`
	AltSSID       *string   `json:"altSSID,omitempty"`
	AltPass       *string   `json:"altPass,omitempty"`
	DevSSID       *string   `json:"devSSID,omitempty"`
	DevPass       *string   `json:"devPass,omitempty"`
	CheckInterval *uint32   `json:"checkInterval,omitempty"`
	Endpoints     *[]string `json:"endpoints,omitempty"`
}

// AddEndpointRequest is the request body for POST /api/settings/endpoints.
type AddEndpointRequest struct {
	URL string `json:"url"`
}

// ListFilesResponse is the body of GET /api/fs/list.
type ListFilesResponse struct {
	Path  string             `json:"path"`
	Files []storage.FileInfo `json:"files"`
}

// FileResponse is the body of GET /api/fs/read.
type FileResponse struct {
	Path    string `json:"path"`
	Size    int    `json:"size"`
	Content string `json:"content"`
}

// WriteFileResponse is the body of POST /api/fs/write.
type WriteFileResponse struct {
	Path    string `json:"path"`
	Written int64  `json:"written"`
}

// FSInfoResponse is the body of GET /api/fs/info.
type FSInfoResponse struct {
	Backend string        `json:"backend"`
	Usage   storage.Usage `json:"usage"`
}

// DeviceInfoResponse is the body of GET /api/device/info.
type DeviceInfoResponse struct {
	Build         buildinfo.Info `json:"build"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Backend       string         `json:"backend"`
	SettingsPath  string         `json:"settings_path"`
	Initialized   bool           `json:"initialized"`
	LocationName  string         `json:"location_name"`
	Endpoints     int            `json:"endpoints"`
	CheckInterval string         `json:"check_interval"`
}

// RestartResponse is the body of POST /api/device/restart.
type RestartResponse struct {
	Initialized bool   `json:"initialized"`
	Fingerprint string `json:"fingerprint"`
	Warning     string `json:"warning,omitempty"`
}
