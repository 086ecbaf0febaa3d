package pipeline

import "github.com/On-Jun9/DupeChecker/pkg/types"

const (
	UpdateStatus       = "status"
	UpdateLoadProgress = "load_progress"
	UpdateComplete     = "complete"
	UpdateError        = "error"
)

type ProgressCallback func(update ProgressUpdate)

type ProgressUpdate struct {
	Type       string             `json:"type"`
	Generation uint64             `json:"generation,omitempty"`
	Message    string             `json:"message,omitempty"`
	Current    int                `json:"current,omitempty"`
	Total      int                `json:"total,omitempty"`
	Filename   string             `json:"filename,omitempty"`
	Summary    *types.LoadSummary `json:"summary,omitempty"`
	Error      string             `json:"error,omitempty"`
}
