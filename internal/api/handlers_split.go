package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/msgsplit/internal/parser"
	"github.com/dgallion1/msgsplit/internal/pipeline"
	"github.com/dgallion1/msgsplit/internal/splitter"
	"github.com/go-chi/chi/v5"
)

// uploadError carries the HTTP status for a rejected upload.
type uploadError struct {
	status int
	msg    string
}

func (e *uploadError) Error() string { return e.msg }

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	filename, data, opts, err := s.readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	res, cached, err := s.orchestrator.Split(r.Context(), data, filename, opts)
	if err != nil {
		jsonError(w, err.Error(), errorStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename":  filename,
		"max_len":   opts.MaxLen,
		"cached":    cached,
		"fragments": res.Fragments,
		"oversize":  nonNil(res.Oversize),
	})
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	filename, data, opts, err := s.readUpload(w, r)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	job := pipeline.NewJob(filename, data, opts)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeUploadError(w, formError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := s.formOptions(r)
	if err != nil {
		writeUploadError(w, err)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required in the files field", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		data, err := s.readFile(fh, filename, opts)
		if err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		job := pipeline.NewJob(filename, data, opts)
		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"filename": filename,
				"error":    err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

// readUpload reads the single "file" part and the split options of a request.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, pipeline.Options, error) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", nil, pipeline.Options{}, formError(err)
	}
	defer r.MultipartForm.RemoveAll()

	opts, err := s.formOptions(r)
	if err != nil {
		return "", nil, pipeline.Options{}, err
	}

	fhs := r.MultipartForm.File["file"]
	if len(fhs) == 0 {
		return "", nil, pipeline.Options{}, &uploadError{http.StatusBadRequest, "file is required"}
	}
	filename := sanitizeFilename(fhs[0].Filename)
	data, err := s.readFile(fhs[0], filename, opts)
	if err != nil {
		return "", nil, pipeline.Options{}, err
	}
	return filename, data, opts, nil
}

func (s *Server) readFile(fh *multipart.FileHeader, filename string, opts pipeline.Options) ([]byte, error) {
	if opts.Format == "" && !parser.IsSupportedExtension(filename) {
		return nil, &uploadError{http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename))}
	}

	f, err := fh.Open()
	if err != nil {
		return nil, &uploadError{http.StatusInternalServerError, "failed to open file"}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, &uploadError{http.StatusInternalServerError, "failed to read file"}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, &uploadError{http.StatusRequestEntityTooLarge, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)}
	}
	return data, nil
}

// formOptions applies the optional max_len, whitespace and format fields on
// top of the server defaults.
func (s *Server) formOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.defaults
	if v := r.FormValue("max_len"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, &uploadError{http.StatusBadRequest, (&splitter.InvalidConfigurationError{
				Field: "max_len", Value: v, Reason: "must be a positive integer",
			}).Error()}
		}
		opts.MaxLen = n
	}
	if v := r.FormValue("whitespace"); v != "" {
		ws, err := splitter.ParseWhitespaceMode(v)
		if err != nil {
			return opts, &uploadError{http.StatusBadRequest, err.Error()}
		}
		opts.Whitespace = ws
	}
	if v := r.FormValue("format"); v != "" {
		if !parser.SupportedExtensions[parser.NormalizeFormat(v)] {
			return opts, &uploadError{http.StatusBadRequest, fmt.Sprintf("unsupported format: %s", v)}
		}
		opts.Format = v
	}
	return opts, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &uploadError{http.StatusRequestEntityTooLarge, fmt.Sprintf("request exceeds max size (%d bytes)", tooLarge.Limit)}
	}
	return &uploadError{http.StatusBadRequest, "invalid multipart form: " + err.Error()}
}

func writeUploadError(w http.ResponseWriter, err error) {
	var ue *uploadError
	if errors.As(err, &ue) {
		jsonError(w, ue.msg, ue.status)
		return
	}
	jsonError(w, err.Error(), http.StatusBadRequest)
}

// errorStatus maps a split failure to an HTTP status.
func errorStatus(err error) int {
	var cfgErr *splitter.InvalidConfigurationError
	var pe *pipeline.PhaseError
	switch {
	case errors.As(err, &cfgErr):
		return http.StatusBadRequest
	case errors.Is(err, splitter.ErrInternal):
		return http.StatusInternalServerError
	case errors.As(err, &pe) && pe.Phase == "parsing":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
