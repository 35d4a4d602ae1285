package renderer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/models"
)

// Service is the local fallback renderer. It composes product images
// into a fixed-duration vertical slideshow with text overlays via an
// ffmpeg subprocess, or a flat-color card when no usable image exists.
type Service struct {
	logger           arbor.ILogger
	ffmpegPath       string
	timeout          time.Duration
	targetDuration   int
	minImageDuration int
	minOutputBytes   int64
	watermark        string
	outputsDir       string
}

// NewService creates a fallback renderer
func NewService(logger arbor.ILogger, cfg *common.RendererConfig, outputsDir string) *Service {
	ffmpeg := cfg.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	target := cfg.TargetDuration
	if target <= 0 {
		target = 25
	}
	minPer := cfg.MinImageDuration
	if minPer <= 0 {
		minPer = 4
	}
	return &Service{
		logger:           logger,
		ffmpegPath:       ffmpeg,
		timeout:          common.DurationOr(cfg.Timeout, 120*time.Second),
		targetDuration:   target,
		minImageDuration: minPer,
		minOutputBytes:   cfg.MinOutputBytes,
		watermark:        cfg.Watermark,
		outputsDir:       outputsDir,
	}
}

// Render produces video_<jobID>.mp4 under the outputs directory.
// Image paths that do not exist are treated as absent. If the image
// branch fails, the flat-color branch runs as an unconditional floor;
// only when that also fails does Render return an error.
func (s *Service) Render(ctx context.Context, imagePaths []string, signals *models.ProductSignals, jobID string) (string, error) {
	outPath := filepath.Join(s.outputsDir, "video_"+jobID+".mp4")
	if err := os.MkdirAll(s.outputsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create outputs directory: %w", err)
	}

	text := buildOverlayText(signals, s.watermark)
	images := existingFiles(imagePaths)

	if len(images) > 0 {
		if err := s.renderSlideshow(ctx, images, text, outPath); err != nil {
			s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Slideshow render failed, trying flat background")
		} else if err := s.verifyOutput(outPath); err != nil {
			s.logger.Warn().Err(err).Str("job_id", jobID).Msg("Slideshow output rejected, trying flat background")
		} else {
			return outPath, nil
		}
	}

	if err := s.renderFlat(ctx, text, outPath); err != nil {
		return "", fmt.Errorf("flat render failed: %w", err)
	}
	if err := s.verifyOutput(outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// renderSlideshow renders one or more images. A single image gets the
// slow-zoom treatment; multiple images are concatenated with a computed
// per-image duration so total runtime stays near the target.
func (s *Service) renderSlideshow(ctx context.Context, images []string, text overlayText, outPath string) error {
	if len(images) == 1 {
		args := []string{
			"-y", "-loop", "1", "-i", images[0],
			"-t", strconv.Itoa(s.targetDuration),
			"-vf", slideshowFilter(text, true),
			"-c:v", "libx264", "-preset", "fast", "-crf", "22",
			"-pix_fmt", "yuv420p", "-r", strconv.Itoa(frameRate),
			outPath,
		}
		return s.run(ctx, args)
	}

	perImage := s.targetDuration / len(images)
	if perImage < s.minImageDuration {
		perImage = s.minImageDuration
	}

	listPath, err := s.writeConcatList(images, perImage)
	if err != nil {
		return err
	}
	defer os.Remove(listPath)

	args := []string{
		"-y", "-f", "concat", "-safe", "0", "-i", listPath,
		"-vf", slideshowFilter(text, false),
		"-c:v", "libx264", "-preset", "fast", "-crf", "22",
		"-pix_fmt", "yuv420p", "-r", strconv.Itoa(frameRate),
		outPath,
	}
	return s.run(ctx, args)
}

// renderFlat renders the no-image branch over a solid background
func (s *Service) renderFlat(ctx context.Context, text overlayText, outPath string) error {
	args := []string{
		"-y", "-f", "lavfi",
		"-i", fmt.Sprintf("color=c=0x1a0a2e:size=%dx%d:rate=%d", frameWidth, frameHeight, frameRate),
		"-t", "15",
		"-vf", flatFilter(text),
		"-c:v", "libx264", "-preset", "ultrafast", "-pix_fmt", "yuv420p",
		outPath,
	}
	return s.run(ctx, args)
}

// run invokes ffmpeg with a hard timeout. An unbounded render could
// hang a job forever, so the subprocess is killed at the deadline.
func (s *Service) run(ctx context.Context, args []string) error {
	runCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.ffmpegPath, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("render timed out after %s", s.timeout)
		}
		tail := string(output)
		if len(tail) > 400 {
			tail = tail[len(tail)-400:]
		}
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail)
	}
	return nil
}

// verifyOutput guards against a renderer that "succeeds" but emits an
// empty or corrupt container.
func (s *Service) verifyOutput(outPath string) error {
	info, err := os.Stat(outPath)
	if err != nil {
		return fmt.Errorf("render produced no output: %w", err)
	}
	if info.Size() < s.minOutputBytes {
		return fmt.Errorf("render output too small: %d bytes (minimum %d)", info.Size(), s.minOutputBytes)
	}
	return nil
}

// writeConcatList writes the ffmpeg concat demuxer list. The final
// entry is repeated without a duration per concat demuxer convention.
func (s *Service) writeConcatList(images []string, perImage int) (string, error) {
	f, err := os.CreateTemp("", "autovis-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create concat list: %w", err)
	}
	defer f.Close()

	for _, img := range images {
		fmt.Fprintf(f, "file '%s'\nduration %d\n", img, perImage)
	}
	fmt.Fprintf(f, "file '%s'\n", images[len(images)-1])

	return f.Name(), nil
}

func existingFiles(paths []string) []string {
	var out []string
	for _, p := range paths {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			out = append(out, p)
		}
	}
	return out
}
