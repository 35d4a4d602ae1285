// Package heygen provides a client for the HeyGen avatar-video API.
package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/autovis/internal/interfaces"
)

const (
	// DefaultBaseURL is the base URL for the HeyGen API.
	DefaultBaseURL = "https://api.heygen.com"

	// DefaultUploadURL is the base URL for asset uploads.
	DefaultUploadURL = "https://upload.heygen.com"

	// DefaultTimeout is the default HTTP timeout for upload/create calls.
	DefaultTimeout = 30 * time.Second

	// DefaultPollTimeout is the per-call timeout for status polls.
	DefaultPollTimeout = 15 * time.Second

	// DefaultDownloadTimeout covers the multi-megabyte result download.
	DefaultDownloadTimeout = 180 * time.Second

	// DefaultPollInterval is the sleep between status polls.
	DefaultPollInterval = 8 * time.Second

	// DefaultMaxPolls bounds the polling loop. Interval times max polls
	// is the wall-clock ceiling for one external render.
	DefaultMaxPolls = 80

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5

	// assetURLPrefix is where uploaded assets are served from when
	// referenced as a video background.
	assetURLPrefix = "https://resource.heygen.com/image/"

	// defaultBackgroundColor is used when no asset was uploaded.
	defaultBackgroundColor = "#FFF5F9"

	outputWidth  = 1080
	outputHeight = 1920
)

// Client drives the HeyGen four-call protocol: asset upload, video
// creation, status polling, result download. Any failure is reported
// as an error to the caller; the pipeline decides what failure means.
type Client struct {
	baseURL        string
	uploadURL      string
	apiKey         string
	httpClient     *http.Client
	pollClient     *http.Client
	downloadClient *http.Client
	logger         arbor.ILogger
	limiter        *rate.Limiter
	pollInterval   time.Duration
	maxPolls       int
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom API base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// WithUploadURL sets a custom upload base URL.
func WithUploadURL(uploadURL string) ClientOption {
	return func(c *Client) {
		c.uploadURL = strings.TrimSuffix(uploadURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client for upload/create calls.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithPollBounds sets the poll interval and attempt ceiling.
func WithPollBounds(interval time.Duration, maxPolls int) ClientOption {
	return func(c *Client) {
		c.pollInterval = interval
		c.maxPolls = maxPolls
	}
}

// WithDownloadTimeout sets the result download timeout.
func WithDownloadTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.downloadClient = &http.Client{Timeout: timeout}
	}
}

// NewClient creates a new HeyGen API client bound to one API key.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		uploadURL:      DefaultUploadURL,
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: DefaultTimeout},
		pollClient:     &http.Client{Timeout: DefaultPollTimeout},
		downloadClient: &http.Client{Timeout: DefaultDownloadTimeout},
		limiter:        rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		pollInterval:   DefaultPollInterval,
		maxPolls:       DefaultMaxPolls,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an error from the HeyGen API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("heygen API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// UploadAsset posts image bytes and returns the opaque asset ID.
// The content type is derived from the file extension.
func (c *Client) UploadAsset(ctx context.Context, imagePath string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to read asset file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL+"/v1/asset", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", contentTypeForImage(imagePath))

	if c.logger != nil {
		c.logger.Debug().
			Str("path", imagePath).
			Int("bytes", len(data)).
			Msg("HeyGen asset upload")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: "/v1/asset"}
	}

	var ur uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if ur.Data.ID != "" {
		return ur.Data.ID, nil
	}
	return ur.ID, nil
}

// CreateVideo submits a generation job and returns the external video ID.
func (c *Client) CreateVideo(ctx context.Context, req interfaces.CreateVideoRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	bg := background{Type: "color", Value: defaultBackgroundColor}
	if req.AssetID != "" {
		bg = background{Type: "image", URL: assetURLPrefix + req.AssetID}
	}

	payload := generateRequest{
		VideoInputs: []videoInput{{
			Character:  character{Type: "avatar", AvatarID: req.AvatarID, AvatarStyle: "normal"},
			Voice:      voice{Type: "text", InputText: req.Script, VoiceID: req.VoiceID, Speed: 1.0},
			Background: bg,
		}},
		Dimension: dimension{Width: outputWidth, Height: outputHeight},
		Test:      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/video/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	if c.logger != nil {
		c.logger.Debug().
			Str("avatar_id", req.AvatarID).
			Str("voice_id", req.VoiceID).
			Bool("has_asset", req.AssetID != "").
			Msg("HeyGen video create")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &APIError{StatusCode: resp.StatusCode, Message: string(respBody), Endpoint: "/v2/video/generate"}
	}

	var gr generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	videoID := gr.Data.VideoID
	if videoID == "" {
		videoID = gr.VideoID
	}
	if videoID == "" {
		return "", fmt.Errorf("no video id in response")
	}
	return videoID, nil
}

// PollVideo polls the video status until completed, failed, or the
// attempt ceiling is reached. Individual poll errors are swallowed and
// the loop keeps going; the bounded loop is the real timeout. Returns
// "" with nil error when the external path did not produce a video.
func (c *Client) PollVideo(ctx context.Context, videoID string, onAttempt func(attempt int)) (string, error) {
	for i := 0; i < c.maxPolls; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}

		if onAttempt != nil {
			onAttempt(i + 1)
		}

		status, url, err := c.pollOnce(ctx, videoID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if c.logger != nil {
				c.logger.Debug().Err(err).Int("attempt", i+1).Msg("HeyGen poll failed, retrying")
			}
			continue
		}

		if status == "completed" && url != "" {
			return url, nil
		}
		if status == "failed" {
			if c.logger != nil {
				c.logger.Warn().Str("video_id", videoID).Msg("HeyGen render failed")
			}
			return "", nil
		}
	}
	return "", nil
}

func (c *Client) pollOnce(ctx context.Context, videoID string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/v1/video_status.get?video_id=%s", c.baseURL, videoID), nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.pollClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", "", &APIError{StatusCode: resp.StatusCode, Message: string(body), Endpoint: "/v1/video_status.get"}
	}

	var sr statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", "", fmt.Errorf("failed to decode response: %w", err)
	}
	return sr.Data.Status, sr.Data.VideoURL, nil
}

// DownloadVideo fetches the rendered result into outPath
func (c *Client) DownloadVideo(ctx context.Context, url string, outPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{StatusCode: resp.StatusCode, Message: resp.Status, Endpoint: url}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("failed to write video: %w", err)
	}

	if c.logger != nil {
		c.logger.Info().Str("path", outPath).Msg("HeyGen video downloaded")
	}
	return nil
}

// contentTypeForImage derives the upload content type from the file
// extension, defaulting to JPEG for anything unrecognized.
func contentTypeForImage(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "jpg", "jpeg", "png", "webp":
		if ext == "jpg" {
			ext = "jpeg"
		}
		return "image/" + ext
	default:
		return "image/jpeg"
	}
}
