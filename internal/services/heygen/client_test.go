package heygen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/autovis/internal/interfaces"
)

func TestUploadAsset(t *testing.T) {
	var gotContentType, gotAPIKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/asset", r.URL.Path)
		gotContentType = r.Header.Get("Content-Type")
		gotAPIKey = r.Header.Get("x-api-key")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"id": "asset-123"},
		})
	}))
	defer srv.Close()

	img := filepath.Join(t.TempDir(), "product.png")
	require.NoError(t, os.WriteFile(img, []byte("pngdata"), 0644))

	client := NewClient("key-1", WithUploadURL(srv.URL), WithRateLimit(100))
	id, err := client.UploadAsset(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "asset-123", id)
	assert.Equal(t, "image/png", gotContentType)
	assert.Equal(t, "key-1", gotAPIKey)
}

func TestUploadAssetTopLevelID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "flat-id"})
	}))
	defer srv.Close()

	img := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0644))

	client := NewClient("k", WithUploadURL(srv.URL), WithRateLimit(100))
	id, err := client.UploadAsset(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "flat-id", id)
}

func TestUploadAssetServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	img := filepath.Join(t.TempDir(), "a.jpg")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0644))

	client := NewClient("k", WithUploadURL(srv.URL), WithRateLimit(100))
	_, err := client.UploadAsset(context.Background(), img)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestCreateVideo(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/video/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"video_id": "vid-9"},
		})
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(100))
	id, err := client.CreateVideo(context.Background(), interfaces.CreateVideoRequest{
		Script:   "xin chào",
		AvatarID: "avatar-1",
		VoiceID:  "voice-1",
		AssetID:  "bg-7",
		Duration: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, "vid-9", id)

	inputs := payload["video_inputs"].([]interface{})
	require.Len(t, inputs, 1)
	input := inputs[0].(map[string]interface{})

	char := input["character"].(map[string]interface{})
	assert.Equal(t, "avatar", char["type"])
	assert.Equal(t, "avatar-1", char["avatar_id"])
	assert.Equal(t, "normal", char["avatar_style"])

	v := input["voice"].(map[string]interface{})
	assert.Equal(t, "text", v["type"])
	assert.Equal(t, "xin chào", v["input_text"])

	bg := input["background"].(map[string]interface{})
	assert.Equal(t, "image", bg["type"])
	assert.Equal(t, assetURLPrefix+"bg-7", bg["url"])

	dim := payload["dimension"].(map[string]interface{})
	assert.EqualValues(t, 1080, dim["width"])
	assert.EqualValues(t, 1920, dim["height"])
	assert.Equal(t, false, payload["test"])
}

func TestCreateVideoColorBackground(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&payload)
		json.NewEncoder(w).Encode(map[string]string{"video_id": "vid-2"})
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(100))
	id, err := client.CreateVideo(context.Background(), interfaces.CreateVideoRequest{
		Script: "s", AvatarID: "a", VoiceID: "v",
	})
	require.NoError(t, err)
	assert.Equal(t, "vid-2", id)

	input := payload["video_inputs"].([]interface{})[0].(map[string]interface{})
	bg := input["background"].(map[string]interface{})
	assert.Equal(t, "color", bg["type"])
	assert.Equal(t, defaultBackgroundColor, bg["value"])
}

func TestPollVideoCompletesOnNth(t *testing.T) {
	const n = 4
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/video_status.get", r.URL.Path)
		require.Equal(t, "vid-1", r.URL.Query().Get("video_id"))
		count := atomic.AddInt32(&polls, 1)
		status := "processing"
		url := ""
		if count >= n {
			status, url = "completed", "https://cdn.example.com/result.mp4"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"status": status, "video_url": url},
		})
	}))
	defer srv.Close()

	client := NewClient("k",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithPollBounds(time.Millisecond, 10))

	var attempts []int
	url, err := client.PollVideo(context.Background(), "vid-1", func(attempt int) {
		attempts = append(attempts, attempt)
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/result.mp4", url)
	assert.EqualValues(t, n, atomic.LoadInt32(&polls), "exactly N poll calls")
	assert.Equal(t, []int{1, 2, 3, 4}, attempts)
}

func TestPollVideoExhaustsCeiling(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&polls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"status": "processing"},
		})
	}))
	defer srv.Close()

	client := NewClient("k",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithPollBounds(time.Millisecond, 5))

	url, err := client.PollVideo(context.Background(), "vid-1", nil)
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.EqualValues(t, 5, atomic.LoadInt32(&polls), "ceiling reached exactly")
}

func TestPollVideoFailedStatus(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&polls, 1)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"status": "failed"},
		})
	}))
	defer srv.Close()

	client := NewClient("k",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithPollBounds(time.Millisecond, 50))

	url, err := client.PollVideo(context.Background(), "vid-1", nil)
	require.NoError(t, err)
	assert.Empty(t, url)
	assert.EqualValues(t, 1, atomic.LoadInt32(&polls), "failed status aborts polling")
}

func TestPollVideoSurvivesTransientErrors(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&polls, 1)
		if count < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"status": "completed", "video_url": "u"},
		})
	}))
	defer srv.Close()

	client := NewClient("k",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithPollBounds(time.Millisecond, 10))

	url, err := client.PollVideo(context.Background(), "vid-1", nil)
	require.NoError(t, err)
	assert.Equal(t, "u", url)
}

func TestPollVideoContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{"status": "processing"},
		})
	}))
	defer srv.Close()

	client := NewClient("k",
		WithBaseURL(srv.URL),
		WithRateLimit(1000),
		WithPollBounds(50*time.Millisecond, 1000))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	_, err := client.PollVideo(ctx, "vid-1", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDownloadVideo(t *testing.T) {
	payload := []byte("fake mp4 bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "out", "video_j1.mp4")
	client := NewClient("k", WithRateLimit(100))
	require.NoError(t, client.DownloadVideo(context.Background(), srv.URL, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloadVideoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "v.mp4")
	client := NewClient("k", WithRateLimit(100))
	err := client.DownloadVideo(context.Background(), srv.URL, out)
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestContentTypeForImage(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"a.jpg", "image/jpeg"},
		{"a.JPEG", "image/jpeg"},
		{"a.png", "image/png"},
		{"a.webp", "image/webp"},
		{"a.gif", "image/jpeg"},
		{"noext", "image/jpeg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, contentTypeForImage(tt.path), tt.path)
	}
}

func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: 429, Message: "too many requests", Endpoint: "/v2/video/generate"}
	assert.Equal(t, "heygen API error: too many requests (status 429, endpoint: /v2/video/generate)", err.Error())
}
