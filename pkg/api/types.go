package api

import (
	"time"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/attrdata/pkg/archive"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind   string
	Port   int
	APIKey string // empty disables authentication
}

// RecordStore is the part of the archive the server uses.
type RecordStore interface {
	Put(group string, version int, data []byte) (ksuid.KSUID, error)
	Get(group string, id ksuid.KSUID) (*archive.Entry, error)
	List(group string, limit int) ([]*archive.Entry, error)
	Delete(group string, id ksuid.KSUID) error
}

// GroupSummary describes one attribute group of the model.
type GroupSummary struct {
	PID        string   `json:"pid"`
	Attributes []string `json:"attributes"`
	FixedSize  *int     `json:"fixed_size,omitempty"`
}

// CheckRequest asks whether text is a valid value of a group attribute.
type CheckRequest struct {
	Attribute string `json:"attribute"`
	Text      string `json:"text"`
}

// CheckResult is the outcome of a value check. Kind names the failure.
type CheckResult struct {
	Attribute string `json:"attribute"`
	Type      string `json:"type"`
	Valid     bool   `json:"valid"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RecordResponse is one archived record. Value is only set when the record
// was decoded.
type RecordResponse struct {
	ID        string    `json:"id"`
	Group     string    `json:"group"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Size      int       `json:"size"`
	Text      string    `json:"text,omitempty"`
	Value     any       `json:"value,omitempty"`
}
