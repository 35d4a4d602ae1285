package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/models"
	"github.com/ternarybob/autovis/internal/services/analyzer"
	"github.com/ternarybob/autovis/internal/services/copygen"
	"github.com/ternarybob/autovis/internal/services/renderer"
	"github.com/ternarybob/autovis/internal/storage/memory"
)

// fakeClient scripts the external service behavior per test
type fakeClient struct {
	uploadID    string
	uploadErr   error
	videoID     string
	createErr   error
	pollURL     string
	pollErr     error
	pollPasses  int
	downloadErr error
	payload     []byte
}

func (f *fakeClient) UploadAsset(ctx context.Context, imagePath string) (string, error) {
	return f.uploadID, f.uploadErr
}

func (f *fakeClient) CreateVideo(ctx context.Context, req interfaces.CreateVideoRequest) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.videoID, nil
}

func (f *fakeClient) PollVideo(ctx context.Context, videoID string, onAttempt func(int)) (string, error) {
	for i := 1; i <= f.pollPasses; i++ {
		if onAttempt != nil {
			onAttempt(i)
		}
	}
	return f.pollURL, f.pollErr
}

func (f *fakeClient) DownloadVideo(ctx context.Context, url string, outPath string) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(outPath, f.payload, 0644)
}

func fakeFFmpeg(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	script := "#!/bin/sh\n" +
		`for a in "$@"; do out="$a"; done` + "\n" +
		`dd if=/dev/zero of="$out" bs=1 count=8192 2>/dev/null` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func newTestPipeline(t *testing.T, client interfaces.RenderClient) (*Service, interfaces.JobStore) {
	t.Helper()
	logger := common.GetLogger()
	store := memory.NewStore()

	analyzerSvc := analyzer.NewService(logger, &common.AnalyzerConfig{
		UserAgent:      "test",
		RequestTimeout: "2s",
		ImageTimeout:   "2s",
		MinImageBytes:  1000,
		RateLimit:      100,
	}, t.TempDir())

	copygenSvc := copygen.NewService(logger, 42)

	rendererSvc := renderer.NewService(logger, &common.RendererConfig{
		FFmpegPath:       fakeFFmpeg(t),
		Timeout:          "10s",
		TargetDuration:   25,
		MinImageDuration: 4,
		MinOutputBytes:   4096,
		Watermark:        "AutoVis AI",
	}, t.TempDir())

	factory := func(apiKey string) interfaces.RenderClient { return client }

	svc := NewService(logger, store, nil, analyzerSvc, copygenSvc, rendererSvc,
		factory, t.TempDir(), 8*time.Second)
	return svc, store
}

func waitForTerminal(t *testing.T, svc *Service, jobID string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetJob(context.Background(), jobID)
		require.NoError(t, err)
		if job.IsTerminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state")
	return nil
}

func writeImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "valid.jpg")
	require.NoError(t, os.WriteFile(path, []byte("imagedata"), 0644))
	return path
}

func TestSubmitRequiresInput(t *testing.T) {
	svc, _ := newTestPipeline(t, &fakeClient{})
	_, err := svc.Submit(context.Background(), SubmitRequest{})
	assert.Error(t, err)
}

func TestFallbackPathEndToEnd(t *testing.T) {
	svc, _ := newTestPipeline(t, &fakeClient{})

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
	})
	require.NoError(t, err)

	job := waitForTerminal(t, svc, jobID)
	assert.Equal(t, models.JobStatusDone, job.Status)
	assert.Equal(t, 100, job.Progress)

	require.NotNil(t, job.Result)
	assert.False(t, job.Result.UsedExternal)
	assert.Equal(t, "video_"+jobID+".mp4", job.Result.VideoFilename)
	assert.Equal(t, "/outputs/video_"+jobID+".mp4", job.Result.VideoURL)
	assert.Len(t, job.Result.Captions, 3)
	assert.Len(t, job.Result.Hashtags, 3)
	assert.NotEmpty(t, job.Result.Script)

	assert.False(t, job.Result.Outcome.AttemptedExternal)
	assert.True(t, job.Result.Outcome.UsedFallback)

	require.NotNil(t, job.ProductInfo)
	assert.Equal(t, "Thời trang bé yêu", job.ProductInfo.Title)
}

func TestExternalPathSuccess(t *testing.T) {
	client := &fakeClient{
		uploadID:   "asset-1",
		videoID:    "vid-1",
		pollURL:    "https://cdn.example.com/v.mp4",
		pollPasses: 3,
		payload:    []byte("external video bytes"),
	}
	svc, _ := newTestPipeline(t, client)

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
		APIKey:     "key-1",
	})
	require.NoError(t, err)

	job := waitForTerminal(t, svc, jobID)
	assert.Equal(t, models.JobStatusDone, job.Status)

	require.NotNil(t, job.Result)
	assert.True(t, job.Result.UsedExternal)
	assert.True(t, job.Result.Outcome.AttemptedExternal)
	assert.False(t, job.Result.Outcome.UsedFallback)
	assert.Empty(t, job.Result.Outcome.ExternalError)
	assert.Equal(t, "video_"+jobID+".mp4", job.Result.VideoFilename)
}

func TestExternalCreateFailureFallsBack(t *testing.T) {
	client := &fakeClient{
		createErr: errors.New("quota exceeded"),
	}
	svc, _ := newTestPipeline(t, client)

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
		APIKey:     "key-1",
	})
	require.NoError(t, err)

	job := waitForTerminal(t, svc, jobID)
	assert.Equal(t, models.JobStatusDone, job.Status)

	require.NotNil(t, job.Result)
	assert.False(t, job.Result.UsedExternal)
	assert.True(t, job.Result.Outcome.AttemptedExternal)
	assert.True(t, job.Result.Outcome.UsedFallback)
	assert.Contains(t, job.Result.Outcome.ExternalError, "quota exceeded")
	assert.NotEmpty(t, job.Result.VideoFilename, "fallback still produces a video")
}

func TestExternalPollExhaustionFallsBack(t *testing.T) {
	client := &fakeClient{
		videoID:    "vid-1",
		pollURL:    "",
		pollPasses: 5,
	}
	svc, _ := newTestPipeline(t, client)

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
		APIKey:     "key-1",
	})
	require.NoError(t, err)

	job := waitForTerminal(t, svc, jobID)
	require.NotNil(t, job.Result)
	assert.True(t, job.Result.Outcome.UsedFallback)
	assert.Equal(t, "external render did not complete", job.Result.Outcome.ExternalError)
}

func TestUploadFailureIsNotFatal(t *testing.T) {
	client := &fakeClient{
		uploadErr:  errors.New("upload rejected"),
		videoID:    "vid-1",
		pollURL:    "https://cdn.example.com/v.mp4",
		pollPasses: 1,
		payload:    []byte("video"),
	}
	svc, _ := newTestPipeline(t, client)

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
		APIKey:     "key-1",
	})
	require.NoError(t, err)

	job := waitForTerminal(t, svc, jobID)
	require.NotNil(t, job.Result)
	assert.True(t, job.Result.UsedExternal, "upload failure alone must not force fallback")
}

func TestBothPathsFailStillCompletes(t *testing.T) {
	client := &fakeClient{createErr: errors.New("service down")}
	svc, _ := newTestPipeline(t, client)

	// Break the fallback renderer by pointing it at a missing binary
	svc.renderer = renderer.NewService(common.GetLogger(), &common.RendererConfig{
		FFmpegPath:     "/nonexistent/ffmpeg",
		Timeout:        "2s",
		MinOutputBytes: 4096,
	}, t.TempDir())

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
		APIKey:     "key-1",
	})
	require.NoError(t, err)

	job := waitForTerminal(t, svc, jobID)
	assert.Equal(t, models.JobStatusDone, job.Status, "total failure still completes the job")

	require.NotNil(t, job.Result)
	assert.Empty(t, job.Result.VideoFilename)
	assert.Empty(t, job.Result.VideoURL)
	assert.NotEmpty(t, job.Result.Outcome.ExternalError)
	assert.NotEmpty(t, job.Result.Outcome.RenderError)
	assert.Len(t, job.Result.Captions, 3, "copy is still delivered")
}

func TestPanicMarksJobError(t *testing.T) {
	svc, _ := newTestPipeline(t, &panickingClient{})

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
		APIKey:     "key-1",
	})
	require.NoError(t, err)

	job := waitForTerminal(t, svc, jobID)
	assert.Equal(t, models.JobStatusError, job.Status)
	assert.Equal(t, 0, job.Progress, "terminal error resets progress")
	assert.Contains(t, job.Step, "render client state corrupted")
	assert.Contains(t, job.Error, "render client state corrupted")
	assert.Nil(t, job.Result)
}

func TestProgressMonotonic(t *testing.T) {
	client := &fakeClient{
		videoID:    "vid-1",
		pollURL:    "https://cdn.example.com/v.mp4",
		pollPasses: 10,
		payload:    []byte("video"),
	}
	svc, _ := newTestPipeline(t, client)

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
		APIKey:     "key-1",
	})
	require.NoError(t, err)

	last := -1
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.GetJob(context.Background(), jobID)
		require.NoError(t, err)
		require.GreaterOrEqual(t, job.Progress, last, "progress must never decrease")
		last = job.Progress
		if job.IsTerminal() {
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 100, last)
}

func TestGetJobNotFound(t *testing.T) {
	svc, _ := newTestPipeline(t, &fakeClient{})
	_, err := svc.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrJobNotFound)
}

func TestDefaultsApplied(t *testing.T) {
	var captured interfaces.CreateVideoRequest
	client := &capturingClient{}
	svc, _ := newTestPipeline(t, client)

	jobID, err := svc.Submit(context.Background(), SubmitRequest{
		ImagePaths: []string{writeImage(t)},
		APIKey:     "key-1",
	})
	require.NoError(t, err)
	waitForTerminal(t, svc, jobID)

	captured = client.created
	assert.Equal(t, models.DefaultAvatarID(), captured.AvatarID)
	assert.Equal(t, models.DefaultVoiceID(), captured.VoiceID)
	assert.Equal(t, 25, captured.Duration)
	assert.NotEmpty(t, captured.Script)
}

// panickingClient blows up inside the job goroutine so the recovery
// path has to mark the job errored
type panickingClient struct{}

func (p *panickingClient) UploadAsset(ctx context.Context, imagePath string) (string, error) {
	return "asset-1", nil
}

func (p *panickingClient) CreateVideo(ctx context.Context, req interfaces.CreateVideoRequest) (string, error) {
	panic("render client state corrupted")
}

func (p *panickingClient) PollVideo(ctx context.Context, videoID string, onAttempt func(int)) (string, error) {
	return "", nil
}

func (p *panickingClient) DownloadVideo(ctx context.Context, url string, outPath string) error {
	return nil
}

// capturingClient records the create request then fails so the test
// finishes quickly through the fallback path
type capturingClient struct {
	created interfaces.CreateVideoRequest
}

func (c *capturingClient) UploadAsset(ctx context.Context, imagePath string) (string, error) {
	return "", fmt.Errorf("skip")
}

func (c *capturingClient) CreateVideo(ctx context.Context, req interfaces.CreateVideoRequest) (string, error) {
	c.created = req
	return "", fmt.Errorf("capture only")
}

func (c *capturingClient) PollVideo(ctx context.Context, videoID string, onAttempt func(int)) (string, error) {
	return "", nil
}

func (c *capturingClient) DownloadVideo(ctx context.Context, url string, outPath string) error {
	return nil
}
