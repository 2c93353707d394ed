package domain

import "time"

const (
	// MaxEndpoints bounds the endpoint list of a record.
	MaxEndpoints = 5

	// DefaultCheckInterval is the polling interval in milliseconds (10 minutes).
	DefaultCheckInterval uint32 = 600000

	// UnsetLocation is the placeholder location name of an unprovisioned device.
	UnsetLocation = "unset"

	// DefaultSettingsPath is where the record lives on the byte store.
	DefaultSettingsPath = "/config.json"
)

// ConfigRecord holds the device settings.
//
// Field order matters: the codec emits fields in declaration order.
type ConfigRecord struct {
	LocationName string `json:"locationName" yaml:"locationName" toml:"locationName"`
	NetworkName  string `json:"networkName" yaml:"networkName" toml:"networkName"`

	MainSSID string `json:"mainSSID" yaml:"mainSSID" toml:"mainSSID"`
	MainPass string `json:"mainPass" yaml:"mainPass" toml:"mainPass"`
	AltSSID  string `json:"altSSID" yaml:"altSSID" toml:"altSSID"`
	AltPass  string `json:"altPass" yaml:"altPass" toml:"altPass"`
	DevSSID  string `json:"devSSID" yaml:"devSSID" toml:"devSSID"`
	DevPass  string `json:"devPass" yaml:"devPass" toml:"devPass"`

	// CheckInterval is in milliseconds.
	CheckInterval uint32 `json:"checkInterval" yaml:"checkInterval" toml:"checkInterval"`

	// Endpoints keeps insertion order; duplicates are allowed.
	Endpoints []string `json:"endpoints" yaml:"endpoints" toml:"endpoints"`
}

// DefaultRecord returns the factory settings.
func DefaultRecord() *ConfigRecord {
	return &ConfigRecord{
		LocationName:  UnsetLocation,
		NetworkName:   "",
		MainSSID:      "cluster1",
		MainPass:      "ISMS12345@",
		AltSSID:       "tomikawa-wifi",
		AltPass:       "tomikawa153855",
		DevSSID:       "fgop",
		DevPass:       "tetrad12345@@@",
		CheckInterval: DefaultCheckInterval,
		Endpoints:     []string{},
	}
}

// Clone returns a deep copy of the record.
func (r *ConfigRecord) Clone() *ConfigRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Endpoints = make([]string, len(r.Endpoints))
	copy(c.Endpoints, r.Endpoints)
	return &c
}

// CheckIntervalDuration returns CheckInterval as a time.Duration.
func (r ConfigRecord) CheckIntervalDuration() time.Duration {
	return time.Duration(r.CheckInterval) * time.Millisecond
}

// Redacted returns a copy with every password masked.
func (r ConfigRecord) Redacted() *ConfigRecord {
	c := r.Clone()
	c.MainPass = maskPassword(c.MainPass)
	c.AltPass = maskPassword(c.AltPass)
	c.DevPass = maskPassword(c.DevPass)
	return c
}

// maskPassword keeps an empty password empty so "not set" stays visible.
func maskPassword(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
