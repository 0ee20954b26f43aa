package types

// FetchEntry is one completed fetch as recorded in the history store
type FetchEntry struct {
	ID          int64  `json:"id"`
	PassID      string `json:"pass_id"` // Sync pass the fetch belonged to
	Resource    string `json:"resource"`
	URL         string `json:"url"`
	DestPath    string `json:"dest_path"`
	Bytes       int64  `json:"bytes"`
	FromCache   bool   `json:"from_cache"`
	Forced      bool   `json:"forced"`
	Status      string `json:"status"`       // "completed", "error"
	Error       string `json:"error,omitempty"`
	CompletedAt int64  `json:"completed_at"` // Unix timestamp
}

const (
	EntryCompleted = "completed"
	EntryError     = "error"
)
