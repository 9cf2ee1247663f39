package status

import "github.com/obsidianstack/composite/pkg/types"

// Composite states reported by the API.
const (
	StateOK      = "ok"
	StateFailing = "failing"
)

// StatusResponse is the payload for GET /api/v1/status.
type StatusResponse struct {
	CompositeCount int `json:"composite_count"`
	OKCount        int `json:"ok_count"`
	FailingCount   int `json:"failing_count"`
	Runs           int `json:"runs"`
	Failures       int `json:"failures"`
}

// CompositeResponse is one entry in GET /api/v1/composites or
// GET /api/v1/composites/{name}.
type CompositeResponse struct {
	Name           string        `json:"name"`
	Output         string        `json:"output"`
	Inputs         int           `json:"inputs"`
	State          string        `json:"state"`
	Runs           int           `json:"runs"`
	Failures       int           `json:"failures"`
	LastRun        string        `json:"last_run"` // RFC3339
	LastDurationMs float64       `json:"last_duration_ms"`
	LastSuccess    string        `json:"last_success,omitempty"`
	LastError      string        `json:"last_error,omitempty"`
	ErrorKind      string        `json:"error_kind,omitempty"`
	Result         *types.Result `json:"result,omitempty"`
	RequestID      string        `json:"request_id,omitempty"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and every stream
// message.
type SnapshotResponse struct {
	Status      StatusResponse      `json:"status"`
	Composites  []CompositeResponse `json:"composites"`
	GeneratedAt string              `json:"generated_at"` // RFC3339
}

type errorResponse struct {
	Error string `json:"error"`
}
