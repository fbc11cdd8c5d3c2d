package jobs

const (
	TaskAcquire = "job:acquire"
	TaskDeliver = "job:deliver"
)

// AcquirePayload starts the fetch/transcode leg of a job after the user has
// picked format and quality.
type AcquirePayload struct {
	JobID   string `json:"job_id"`
	ChatID  int64  `json:"chat_id"`
	UserID  int64  `json:"user_id"`
	URL     string `json:"url"`
	Format  string `json:"format"`  // "video" or "audio"
	Quality string `json:"quality"` // "best", "1080p", "720p", "480p"
	Lang    string `json:"lang"`
	// StatusMsgID is the message edited in place for progress updates.
	StatusMsgID int `json:"status_msg_id"`
}

// DeliverPayload executes the chosen delivery route for an acquired file.
type DeliverPayload struct {
	JobID       string `json:"job_id"`
	ChatID      int64  `json:"chat_id"`
	UserID      int64  `json:"user_id"`
	Route       string `json:"route"` // "direct" or "cloud"
	FilePath    string `json:"file_path"`
	FileSize    int64  `json:"file_size"`
	Format      string `json:"format"`
	Lang        string `json:"lang"`
	StatusMsgID int    `json:"status_msg_id"`
}
