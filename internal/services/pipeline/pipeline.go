package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/models"
	"github.com/ternarybob/autovis/internal/services/analyzer"
	"github.com/ternarybob/autovis/internal/services/copygen"
	"github.com/ternarybob/autovis/internal/services/renderer"
)

// Progress checkpoints. Poll attempts map into the 48-92 band so the
// caller sees liveness during a multi-minute external render; the
// fallback checkpoint (65) may be lower than a late poll value, which
// the monotonic clamp in Job.SetProgress absorbs.
const (
	progressStart     = 5
	progressAnalyzing = 12
	progressScripting = 22
	progressUpload    = 30
	progressCreate    = 40
	progressPollBase  = 48
	progressPollCap   = 92
	progressDownload  = 94
	progressFallback  = 65
	progressDone      = 100
)

// Service orchestrates the content-generation pipeline. Each submitted
// job runs in its own panic-protected goroutine; the job store is the
// only shared state and each record is written only by its own job.
type Service struct {
	logger        arbor.ILogger
	store         interfaces.JobStore
	events        interfaces.EventService
	analyzer      *analyzer.Service
	copygen       *copygen.Service
	renderer      *renderer.Service
	clientFactory interfaces.RenderClientFactory
	outputsDir    string
	pollInterval  time.Duration
}

// SubmitRequest carries one job submission. The web layer persists any
// uploaded files first; the pipeline only ever sees local paths. JobID
// may be pre-generated by the caller so upload file names can carry it;
// when empty the pipeline generates one.
type SubmitRequest struct {
	JobID      string
	ProductURL string
	ImagePaths []string
	APIKey     string
	AvatarID   string
	VoiceID    string
	Duration   int
}

// NewService creates the job pipeline
func NewService(
	logger arbor.ILogger,
	store interfaces.JobStore,
	events interfaces.EventService,
	analyzerSvc *analyzer.Service,
	copygenSvc *copygen.Service,
	rendererSvc *renderer.Service,
	clientFactory interfaces.RenderClientFactory,
	outputsDir string,
	pollInterval time.Duration,
) *Service {
	return &Service{
		logger:        logger,
		store:         store,
		events:        events,
		analyzer:      analyzerSvc,
		copygen:       copygenSvc,
		renderer:      rendererSvc,
		clientFactory: clientFactory,
		outputsDir:    outputsDir,
		pollInterval:  pollInterval,
	}
}

// Submit registers a job and starts its background task. The task runs
// to completion regardless of whether anyone keeps observing it.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.ProductURL == "" && len(req.ImagePaths) == 0 {
		return "", fmt.Errorf("a product url or an image is required")
	}

	if req.AvatarID == "" {
		req.AvatarID = models.DefaultAvatarID()
	}
	if req.VoiceID == "" {
		req.VoiceID = models.DefaultVoiceID()
	}
	if req.Duration <= 0 {
		req.Duration = 25
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = common.NewJobID()
	}
	job := models.NewJob(jobID)
	if err := s.store.Put(ctx, job); err != nil {
		return "", fmt.Errorf("failed to store job: %w", err)
	}

	s.logger.Info().
		Str("job_id", jobID).
		Bool("has_url", req.ProductURL != "").
		Int("images", len(req.ImagePaths)).
		Bool("external", req.APIKey != "").
		Msg("Job submitted")

	common.SafeGo(s.logger, "pipeline-"+jobID, func() {
		s.process(context.Background(), jobID, req)
	})

	return jobID, nil
}

// GetJob returns a copy of the job record
func (s *Service) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	return s.store.Get(ctx, jobID)
}

// process runs one job end to end. Extraction and render failures are
// absorbed by fallbacks; only an unexpected panic marks the job error.
func (s *Service) process(ctx context.Context, jobID string, req SubmitRequest) {
	defer func() {
		if r := recover(); r != nil {
			s.markError(ctx, jobID, fmt.Sprintf("%v", r))
			panic(r) // re-raise so SafeGo logs the stack
		}
	}()

	s.setProgress(ctx, jobID, "🔍 Đang phân tích sản phẩm...", progressStart)

	// 1. Extract product signals
	var signals *models.ProductSignals
	switch {
	case req.ProductURL != "":
		s.setProgress(ctx, jobID, "📡 Đang tải thông tin từ link...", progressAnalyzing)
		signals = s.analyzer.Extract(ctx, req.ProductURL)
		if signals.LocalImage != "" && len(req.ImagePaths) == 0 {
			req.ImagePaths = []string{signals.LocalImage}
		}
	case len(req.ImagePaths) > 0:
		s.setProgress(ctx, jobID, "🖼️ Đang phân tích hình ảnh...", progressAnalyzing)
		signals = s.analyzer.ExtractFromImage(req.ImagePaths[0])
	default:
		signals = models.DefaultSignals("")
	}

	info := signals.Info()
	s.update(ctx, jobID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.ProductInfo = info
		j.SetProgress("✍️ Đang tạo script quảng cáo...", progressScripting)
	})

	// 2. Generate copy
	script := s.copygen.GenerateScript(signals)
	content := s.copygen.GenerateContent(signals)

	// 3. Produce the video
	outcome := models.RenderOutcome{}
	videoPath := ""

	if req.APIKey != "" {
		outcome.AttemptedExternal = true
		videoPath = s.runExternal(ctx, jobID, req, signals, script, &outcome)
	}

	if videoPath == "" {
		outcome.UsedFallback = true
		s.setProgress(ctx, jobID, "🎨 Đang render video...", progressFallback)

		path, err := s.renderer.Render(ctx, req.ImagePaths, signals, jobID)
		if err != nil {
			outcome.RenderError = err.Error()
			s.logger.Error().Err(err).Str("job_id", jobID).Msg("Fallback render failed")
		} else {
			videoPath = path
		}
	}

	// 4. Finish. A job with no video still completes: the result
	// carries the structured outcome so the degradation is observable.
	filename := ""
	videoURL := ""
	if videoPath != "" {
		filename = filepath.Base(videoPath)
		videoURL = "/outputs/" + filename
	}

	usedExternal := videoPath != "" && !outcome.UsedFallback

	s.update(ctx, jobID, func(j *models.Job) {
		j.Status = models.JobStatusDone
		j.Result = &models.RenderResult{
			VideoURL:      videoURL,
			VideoFilename: filename,
			Script:        script,
			Captions:      content.Captions,
			Hashtags:      content.Hashtags,
			UsedExternal:  usedExternal,
			Outcome:       outcome,
		}
		j.SetProgress("✅ Hoàn tất!", progressDone)
	})

	s.publish(ctx, jobID, interfaces.EventJobCompleted)

	s.logger.Info().
		Str("job_id", jobID).
		Bool("used_external", usedExternal).
		Bool("has_video", videoPath != "").
		Msg("Job completed")
}

// runExternal drives the four-call external protocol. Any failure
// returns "" and records the reason; nothing here escalates to a
// job-level error.
func (s *Service) runExternal(ctx context.Context, jobID string, req SubmitRequest, signals *models.ProductSignals, script string, outcome *models.RenderOutcome) string {
	client := s.clientFactory(req.APIKey)

	assetID := ""
	if img := firstImage(req.ImagePaths, signals.LocalImage); img != "" {
		s.setProgress(ctx, jobID, "⬆️ Đang upload ảnh nền...", progressUpload)
		id, err := client.UploadAsset(ctx, img)
		if err != nil {
			// Upload failure is not fatal: the service renders over a
			// solid background instead.
			s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Asset upload failed, using color background")
		} else {
			assetID = id
		}
	}

	s.setProgress(ctx, jobID, "🤖 Đang tạo người mẫu AI...", progressCreate)
	videoID, err := client.CreateVideo(ctx, interfaces.CreateVideoRequest{
		Script:   script,
		AvatarID: req.AvatarID,
		VoiceID:  req.VoiceID,
		AssetID:  assetID,
		Duration: req.Duration,
	})
	if err != nil {
		outcome.ExternalError = err.Error()
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("External video create failed")
		return ""
	}

	s.setProgress(ctx, jobID, "🎬 Đang render video AI...", progressPollBase)
	pollSeconds := int(s.pollInterval / time.Second)
	resultURL, err := client.PollVideo(ctx, videoID, func(attempt int) {
		pct := progressPollBase + attempt - 1
		if pct > progressPollCap {
			pct = progressPollCap
		}
		step := fmt.Sprintf("🎬 Đang render video AI... (%ds)", attempt*pollSeconds)
		s.setProgress(ctx, jobID, step, pct)
	})
	if err != nil {
		outcome.ExternalError = err.Error()
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("External poll failed")
		return ""
	}
	if resultURL == "" {
		outcome.ExternalError = "external render did not complete"
		return ""
	}

	s.setProgress(ctx, jobID, "⬇️ Đang tải video về...", progressDownload)
	outPath := filepath.Join(s.outputsDir, "video_"+jobID+".mp4")
	if err := client.DownloadVideo(ctx, resultURL, outPath); err != nil {
		outcome.ExternalError = err.Error()
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("External video download failed")
		return ""
	}
	return outPath
}

func (s *Service) setProgress(ctx context.Context, jobID, step string, progress int) {
	s.update(ctx, jobID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.SetProgress(step, progress)
	})
}

func (s *Service) markError(ctx context.Context, jobID, message string) {
	err := s.store.Update(ctx, jobID, func(j *models.Job) {
		j.Status = models.JobStatusError
		j.Step = "❌ Lỗi: " + message
		j.Error = message
		j.Progress = 0
		j.UpdatedAt = time.Now()
	})
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to mark job as errored")
		return
	}
	s.publish(ctx, jobID, interfaces.EventJobFailed)
}

func (s *Service) update(ctx context.Context, jobID string, mutate func(*models.Job)) {
	if err := s.store.Update(ctx, jobID, mutate); err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("Failed to update job")
		return
	}
	s.publish(ctx, jobID, interfaces.EventJobUpdated)
}

func (s *Service) publish(ctx context.Context, jobID string, eventType interfaces.EventType) {
	if s.events == nil {
		return
	}
	job, err := s.store.Get(ctx, jobID)
	if err != nil {
		return
	}
	_ = s.events.Publish(ctx, interfaces.Event{Type: eventType, Payload: job})
}

func firstImage(paths []string, extra string) string {
	for _, p := range paths {
		if p != "" {
			return p
		}
	}
	return extra
}
