package main

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/forecast"
	"github.com/sells-group/pipeline-predict/internal/opportunity"
	"github.com/sells-group/pipeline-predict/internal/report"
	"github.com/sells-group/pipeline-predict/internal/session"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type uploadKind int

const (
	uploadPipeline uploadKind = iota
	uploadPacing
)

// server holds the HTTP handlers' shared state.
type server struct {
	store     *session.Store
	defaults  report.Params
	maxUpload int64
}

// sessionView is the JSON form of a session.
type sessionView struct {
	session.Session
	PipelineRows int `json:"pipeline_rows"`
	PacingRows   int `json:"pacing_rows"`
}

func viewOf(s session.Session) sessionView {
	return sessionView{Session: s, PipelineRows: s.Pipeline.Len(), PacingRows: s.Pacing.Len()}
}

// newParams returns a deep copy of the server defaults, safe to decode into.
func (s *server) newParams() report.Params {
	p := s.defaults
	p.Rates = make(forecast.RateTable, len(s.defaults.Rates))
	for k, v := range s.defaults.Rates {
		p.Rates[k] = v
	}
	p.AllowedSegmentations = append([]string(nil), s.defaults.AllowedSegmentations...)
	p.Pacing.Segments = append([]string(nil), s.defaults.Pacing.Segments...)
	return p
}

// decodeParams reads a JSON params body over the defaults. Rates overlay
// the default table; keys are title-cased so "upside" names "Upside".
func (s *server) decodeParams(r io.Reader) (report.Params, error) {
	p := s.newParams()
	rates := p.Rates
	p.Rates = nil

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return p, err
	}

	for k, v := range p.Rates {
		rates = rates.With(k, v)
	}
	p.Rates = rates
	return p, p.Validate()
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.store.Stats(),
	})
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, err := s.decodeParams(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, err := s.store.Create(p)
	if errors.Is(err, session.ErrFull) {
		writeError(w, http.StatusServiceUnavailable, "too many active sessions")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	zap.L().Info("session created", zap.String("session_id", sess.ID))
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleUpload(kind uploadKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := s.lookup(w, r); !ok {
			return
		}

		name, data, err := readUpload(w, r, s.maxUpload)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds size limit")
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		opts := fetcher.LoadOptions{Header: kind == uploadPipeline, Sheet: r.URL.Query().Get("sheet")}
		t, err := fetcher.LoadBytes(r.Context(), name, data, opts)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		sess, err := s.store.Update(id, func(sess *session.Session) error {
			if kind == uploadPipeline {
				sess.Pipeline, sess.PipelineName = t, name
			} else {
				sess.Pacing, sess.PacingName = t, name
			}
			return nil
		})
		if err != nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		zap.L().Info("session upload stored",
			zap.String("session_id", id),
			zap.String("file", name),
			zap.Int("rows", t.Len()),
		)
		writeJSON(w, http.StatusOK, viewOf(sess))
	}
}

func (s *server) handleParams(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.lookup(w, r); !ok {
		return
	}

	p, err := s.decodeParams(r.Body)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess, err := s.store.Update(id, func(sess *session.Session) error {
		sess.Params = p
		return nil
	})
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rep, err := report.Build(sess.Inputs(), sess.Params)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	if err := report.Write(w, rep, format); err != nil {
		zap.L().Error("write report response", zap.String("session_id", sess.ID), zap.Error(err))
	}
}

func (s *server) handleOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if sess.Pipeline == nil {
		writeError(w, http.StatusConflict, "no pipeline uploaded")
		return
	}

	res, err := opportunity.Normalize(sess.Pipeline, sess.Params.Rates)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, opportunity.Options(res.Records, sess.Params.AllowedSegmentations))
}

func (s *server) lookup(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return session.Session{}, false
	}
	return sess, true
}

// readUpload returns the file name and body of a multipart "file" field or
// a raw request body. Raw bodies are named by ?name= or their content type.
func readUpload(w http.ResponseWriter, r *http.Request, limit int64) (string, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(limit); err != nil {
			return "", nil, err
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, err
		}
		defer f.Close() //nolint:errcheck
		data, err := io.ReadAll(f)
		return hdr.Filename, data, err
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	if len(data) == 0 {
		return "", nil, eris.New("empty upload")
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "upload.csv"
		if mediaType == xlsxContentType {
			name = "upload.xlsx"
		}
	}
	return name, data, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode json response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
