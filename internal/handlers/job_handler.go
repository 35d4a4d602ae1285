package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/autovis/internal/common"
	"github.com/ternarybob/autovis/internal/interfaces"
	"github.com/ternarybob/autovis/internal/models"
	"github.com/ternarybob/autovis/internal/services/pipeline"
)

const maxUploadBytes = 32 << 20 // 32 MB multipart memory cap

// JobHandler serves job submission, status polling and video download
type JobHandler struct {
	logger     arbor.ILogger
	pipeline   *pipeline.Service
	uploadsDir string
	outputsDir string
}

// NewJobHandler creates the job endpoint handler
func NewJobHandler(logger arbor.ILogger, pipelineSvc *pipeline.Service, uploadsDir, outputsDir string) *JobHandler {
	return &JobHandler{
		logger:     logger,
		pipeline:   pipelineSvc,
		uploadsDir: uploadsDir,
		outputsDir: outputsDir,
	}
}

// CreateHandler accepts a multipart job submission. An uploaded image
// is persisted under the uploads directory before the pipeline sees it;
// the pipeline only ever receives local file paths.
func (h *JobHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	productURL := strings.TrimSpace(r.FormValue("product_url"))
	apiKey := strings.TrimSpace(r.FormValue("api_key"))
	avatarID := r.FormValue("avatar_id")
	voiceID := r.FormValue("voice_id")

	// Empty means the pipeline default; anything else must come from
	// the catalog served by /api/config.
	if avatarID != "" && !models.IsKnownAvatar(avatarID) {
		WriteError(w, http.StatusBadRequest, "Avatar không hợp lệ")
		return
	}
	if voiceID != "" && !models.IsKnownVoice(voiceID) {
		WriteError(w, http.StatusBadRequest, "Giọng đọc không hợp lệ")
		return
	}

	duration := 25
	if d := r.FormValue("duration"); d != "" {
		if n, err := strconv.Atoi(d); err == nil && n > 0 {
			duration = n
		}
	}

	jobID := common.NewJobID()

	var imagePaths []string
	file, header, err := r.FormFile("image")
	if err == nil {
		defer file.Close()
		path, saveErr := h.saveUpload(file, header.Filename, jobID)
		if saveErr != nil {
			WriteError(w, http.StatusInternalServerError, "failed to store upload: "+saveErr.Error())
			return
		}
		imagePaths = append(imagePaths, path)
	} else if !errors.Is(err, http.ErrMissingFile) {
		WriteError(w, http.StatusBadRequest, "invalid image upload: "+err.Error())
		return
	}

	if productURL == "" && len(imagePaths) == 0 {
		WriteError(w, http.StatusBadRequest, "Cần link sản phẩm hoặc ảnh")
		return
	}

	id, err := h.pipeline.Submit(r.Context(), pipeline.SubmitRequest{
		JobID:      jobID,
		ProductURL: productURL,
		ImagePaths: imagePaths,
		APIKey:     apiKey,
		AvatarID:   avatarID,
		VoiceID:    voiceID,
		Duration:   duration,
	})
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"job_id": id})
}

// GetHandler returns the current job record for polling clients.
// Route: GET /api/job/{id}
func (h *JobHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/api/job/")
	if jobID == "" || strings.Contains(jobID, "/") {
		WriteError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	job, err := h.pipeline.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, interfaces.ErrJobNotFound) {
			WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, job)
}

// DownloadHandler serves a rendered video as an attachment.
// Route: GET /api/download/{filename}
func (h *JobHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	filename := strings.TrimPrefix(r.URL.Path, "/api/download/")
	// The filename becomes a path component; reject anything that could
	// escape the outputs directory.
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		WriteError(w, http.StatusBadRequest, "invalid filename")
		return
	}

	path := filepath.Join(h.outputsDir, filename)
	if _, err := os.Stat(path); err != nil {
		WriteError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	http.ServeFile(w, r, path)
}

// saveUpload persists an uploaded image as up_<jobID><ext>
func (h *JobHandler) saveUpload(file io.Reader, originalName, jobID string) (string, error) {
	if err := os.MkdirAll(h.uploadsDir, 0755); err != nil {
		return "", err
	}

	ext := filepath.Ext(originalName)
	if ext == "" {
		ext = ".jpg"
	}

	path := filepath.Join(h.uploadsDir, "up_"+jobID+ext)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", err
	}

	h.logger.Debug().Str("path", path).Msg("Upload stored")
	return path, nil
}
