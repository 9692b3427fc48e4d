package domain

// ThumbnailWidths are the fixed derivative sizes produced for every image.
var ThumbnailWidths = []int{500, 250, 100}

// ValidThumbnailWidth reports whether w is a producible derivative width.
func ValidThumbnailWidth(w int) bool {
	for _, known := range ThumbnailWidths {
		if w == known {
			return true
		}
	}
	return false
}

// ThumbnailJob asks the pipeline to derive resized copies of an uploaded image.
type ThumbnailJob struct {
	OwnerID  string `json:"ownerId"`
	FileID   string `json:"fileId"`
	Attempts int    `json:"attempts,omitempty"`
}

// WelcomeJob asks the pipeline to send a welcome notification to a new account.
type WelcomeJob struct {
	UserID   string `json:"userId"`
	Attempts int    `json:"attempts,omitempty"`
}

// JobStatus tracks a job through the pipeline state machine:
// queued -> processing -> done | failed.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// JobEvent is published whenever a job changes state.
type JobEvent struct {
	Lane    string    `json:"lane"`
	OwnerID string    `json:"ownerId"`
	FileID  string    `json:"fileId,omitempty"`
	Status  JobStatus `json:"status"`
	Error   string    `json:"error,omitempty"`
}
