package interfaces

import "context"

// RenderClient drives the external avatar-video service through its
// four-call protocol. All methods return errors rather than panicking;
// the pipeline treats any failure as a signal to fall back to local
// rendering, never as a job-level error.
type RenderClient interface {
	// UploadAsset posts image bytes and returns an opaque asset ID.
	// An empty ID with nil error means the service accepted the call
	// but returned no usable identifier.
	UploadAsset(ctx context.Context, imagePath string) (string, error)

	// CreateVideo submits a generation job and returns the external
	// video identifier.
	CreateVideo(ctx context.Context, req CreateVideoRequest) (string, error)

	// PollVideo polls until the video completes, fails, or the attempt
	// ceiling is reached. onAttempt is invoked after each poll with the
	// 1-based attempt number so the caller can surface liveness.
	// Returns the result URL on completion, or "" when the external
	// path did not produce a video.
	PollVideo(ctx context.Context, videoID string, onAttempt func(attempt int)) (string, error)

	// DownloadVideo fetches the result URL into outPath
	DownloadVideo(ctx context.Context, url string, outPath string) error
}

// CreateVideoRequest describes one external generation job
type CreateVideoRequest struct {
	Script   string
	AvatarID string
	VoiceID  string
	AssetID  string // uploaded background asset; empty = solid color background
	Duration int    // seconds, advisory
}

// RenderClientFactory builds a client bound to a per-job API credential.
// The pipeline receives credentials per submission, so clients cannot be
// constructed once at startup.
type RenderClientFactory func(apiKey string) RenderClient
