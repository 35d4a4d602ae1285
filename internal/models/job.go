package models

import (
	"time"
)

// JobStatus represents the lifecycle state of a video generation job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// ProductInfo holds the signals extracted from a product page or image
type ProductInfo struct {
	Title    string `json:"title"`
	Price    string `json:"price,omitempty"`
	Gender   string `json:"gender"`   // "bé gái", "bé trai" or "bé"
	Age      string `json:"age"`      // age bracket label, e.g. "1–3 tuổi"
	Platform string `json:"platform"` // "Shopee", "Lazada", ..., "Website" or "Upload"
}

// RenderOutcome records which rendering paths ran and how they ended.
// A job can finish "done" with no video when both paths fail; this struct
// is what makes that state observable to callers.
type RenderOutcome struct {
	AttemptedExternal bool   `json:"attempted_external"`
	ExternalError     string `json:"external_error,omitempty"`
	UsedFallback      bool   `json:"used_fallback"`
	RenderError       string `json:"render_error,omitempty"`
}

// RenderResult is the final product of a completed job
type RenderResult struct {
	VideoURL      string        `json:"video_url,omitempty"`
	VideoFilename string        `json:"video_filename,omitempty"`
	Script        string        `json:"script"`
	Captions      []string      `json:"captions"`
	Hashtags      []string      `json:"hashtags"`
	UsedExternal  bool          `json:"used_external_service"`
	Outcome       RenderOutcome `json:"outcome"`
}

// Job represents an asynchronous video generation job
type Job struct {
	ID          string        `json:"id" badgerhold:"key"`
	Status      JobStatus     `json:"status"`
	Step        string        `json:"step"`
	Progress    int           `json:"progress"` // 0-100, monotonically non-decreasing
	Error       string        `json:"error,omitempty"`
	ProductInfo *ProductInfo  `json:"product_info,omitempty"`
	Result      *RenderResult `json:"result,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// NewJob creates a job in its initial queued state
func NewJob(id string) *Job {
	now := time.Now()
	return &Job{
		ID:        id,
		Status:    JobStatusPending,
		Step:      "Đang khởi tạo...",
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so stored jobs cannot be mutated through
// pointers handed to callers.
func (j *Job) Clone() *Job {
	c := *j
	if j.ProductInfo != nil {
		pi := *j.ProductInfo
		c.ProductInfo = &pi
	}
	if j.Result != nil {
		r := *j.Result
		r.Captions = append([]string(nil), j.Result.Captions...)
		r.Hashtags = append([]string(nil), j.Result.Hashtags...)
		c.Result = &r
	}
	return &c
}

// SetProgress advances progress, clamping so it never moves backwards.
// The fallback path reports lower checkpoint values than a failed external
// path's last poll; without the clamp progress would visibly regress.
func (j *Job) SetProgress(step string, progress int) {
	if progress > j.Progress {
		j.Progress = progress
	}
	j.Step = step
	j.UpdatedAt = time.Now()
}

// IsTerminal reports whether the job has finished (successfully or not)
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusDone || j.Status == JobStatusError
}
