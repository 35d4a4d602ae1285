package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (live job progress and log feed)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Jobs
	mux.HandleFunc("/api/create", s.app.JobHandler.CreateHandler)      // POST - submit a job
	mux.HandleFunc("/api/job/", s.app.JobHandler.GetHandler)           // GET /{id} - poll job status
	mux.HandleFunc("/api/download/", s.app.JobHandler.DownloadHandler) // GET /{filename} - download video

	// API routes - System
	mux.HandleFunc("/api/config", s.app.APIHandler.ConfigHandler) // GET - avatar and voice catalogs
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)

	// Rendered videos for inline playback
	mux.Handle("/outputs/", http.StripPrefix("/outputs/",
		http.FileServer(http.Dir(s.app.Config.Paths.Outputs))))

	return mux
}
