// internal/server/diagnose.go
package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"agri-officer/internal/common/metrics"

	"github.com/google/uuid"
)

const defaultMaxUploadBytes = 10 << 20 // 10 MiB

// handleDiagnose accepts a multipart image upload plus a language form
// field, classifies the image and returns a localized advisory. The
// uploaded file is spooled to disk for the classifier and removed on every
// exit path.
func (s *Server) handleDiagnose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start := time.Now()
	defer func() {
		metrics.RequestDuration.WithLabelValues("diagnose").Observe(time.Since(start).Seconds())
		s.obs.RecordDuration(r.Context(), "diagnose", time.Since(start))
	}()

	maxBytes := s.config.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.DiagnoseRequestsTotal.WithLabelValues("bad_request").Inc()
		s.obs.RecordRequest(r.Context(), "diagnose", "bad_request")
		s.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	language := r.FormValue("language")

	imagePath, err := s.spoolUpload(file, header.Filename)
	if err != nil {
		s.logger.Error("Failed to save uploaded file", map[string]interface{}{
			"filename": header.Filename,
			"error":    err.Error(),
		})
		metrics.DiagnoseRequestsTotal.WithLabelValues("save_error").Inc()
		s.obs.RecordRequest(r.Context(), "diagnose", "error")
		s.writeError(w, http.StatusInternalServerError, "Could not save file.")
		return
	}
	defer func() {
		if err := os.Remove(imagePath); err != nil {
			s.logger.Warn("Failed to remove temporary upload", map[string]interface{}{
				"path":  imagePath,
				"error": err.Error(),
			})
		}
	}()

	advisory, err := s.adviser.Advise(r.Context(), imagePath, language)
	if err != nil {
		s.logger.Error("Diagnosis failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.obs.RecordRequest(r.Context(), "diagnose", "error")
		s.writeError(w, http.StatusInternalServerError, "An error occurred during the diagnosis.")
		return
	}

	s.obs.RecordRequest(r.Context(), "diagnose", "ok")
	s.writeJSON(w, http.StatusOK, advisory)
}

// spoolUpload writes the upload under the configured temp dir with a unique
// name so concurrent uploads of the same filename cannot collide.
func (s *Server) spoolUpload(file io.Reader, filename string) (string, error) {
	dir := s.config.UploadDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "agri-officer-uploads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, uuid.NewString()+"_"+filepath.Base(filename))
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
