package server

import (
	"io"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/schemconv/pkg/buildinfo"
	"github.com/matzehuels/schemconv/pkg/engine"
	errs "github.com/matzehuels/schemconv/pkg/errors"
	"github.com/matzehuels/schemconv/pkg/formats"
	"github.com/matzehuels/schemconv/pkg/pipeline"
	"github.com/matzehuels/schemconv/pkg/render"
	"github.com/matzehuels/schemconv/pkg/session"
)

// Response headers describing a conversion.
const (
	HeaderCache        = "X-Cache"
	HeaderSourceFormat = "X-Source-Format"
)

const contentTypeBinary = "application/octet-stream"

// engineInfo describes a session in API responses.
type engineInfo struct {
	ID        uuid.UUID `json:"id"`
	State     string    `json:"state"`
	Source    string    `json:"source,omitempty"`
	Regions   int       `json:"regions"`
	Blocks    int       `json:"blocks"`
	Volume    int       `json:"volume"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	opts := s.opts
	opts.From = q.Get("from")
	opts.To = q.Get("to")
	opts.Refresh, _ = strconv.ParseBool(q.Get("refresh"))
	opts.Logger = loggerFrom(r.Context(), s.logger)

	res, err := s.runner.Convert(r.Context(), body, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set(HeaderCache, cacheStatus(res.CacheHit))
	if res.From != formats.Unknown {
		w.Header().Set(HeaderSourceFormat, res.From.String())
	}
	writeBytes(w, contentTypeBinary, res.Output)
}

func (s *Server) handleCreateEngine(w http.ResponseWriter, r *http.Request) {
	opts := append(slices.Clone(s.engine), engine.WithLogger(loggerFrom(r.Context(), s.logger)))
	sess, err := s.sessions.Create(r.Context(), opts...)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/engines/"+sess.ID.String())
	writeJSON(w, http.StatusCreated, describe(sess))
}

func (s *Server) handleGetEngine(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describe(sess))
}

func (s *Server) handleDeleteEngine(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLoad replaces the session model. format may be auto (default),
// litematic or schem.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	from, err := pipeline.ParseFrom(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, err)
		return
	}
	body, err := s.readBody(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	if from == formats.Unknown {
		_, err = sess.Engine.LoadAuto(body)
	} else {
		err = sess.Engine.Load(from, body)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, describe(sess))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	name := r.URL.Query().Get("format")
	if name == "" {
		writeError(w, errs.New(errs.ErrCodeInvalidFormat, "format is required (litematic or schem)"))
		return
	}
	f, err := formats.Parse(name)
	if err != nil {
		writeError(w, errs.Wrap(errs.ErrCodeInvalidFormat, err, "output format"))
		return
	}
	out, err := sess.Engine.Save(f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBytes(w, contentTypeBinary, out)
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	text, err := sess.Engine.RenderText()
	if err != nil {
		writeError(w, err)
		return
	}
	writeBytes(w, "text/plain; charset=utf-8", []byte(text))
}

func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		writeError(w, err)
		return
	}
	output := r.URL.Query().Get("output")
	if output == "" {
		output = render.OutputText
	}
	if output == pipeline.OutputSummary {
		writeError(w, errs.New(errs.ErrCodeInvalidInput, "use /text for the summary"))
		return
	}
	if err := pipeline.ValidateOutput(output); err != nil {
		writeError(w, err)
		return
	}
	out, err := sess.Engine.DebugAs(output)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBytes(w, contentType(output), out)
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errs.New(errs.ErrCodeInvalidInput, "empty request body")
	}
	return body, nil
}

func (s *Server) session(r *http.Request) (*session.Session, error) {
	id, err := sessionID(r)
	if err != nil {
		return nil, err
	}
	return s.sessions.Get(r.Context(), id)
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "engine id %q", raw)
	}
	return id, nil
}

func describe(sess *session.Session) engineInfo {
	info := engineInfo{
		ID:        sess.ID,
		State:     sess.Engine.State().String(),
		ExpiresAt: sess.ExpiresAt(),
	}
	if src := sess.Engine.Source(); src != formats.Unknown {
		info.Source = src.String()
	}
	if st, err := sess.Engine.Stats(); err == nil {
		info.Regions, info.Blocks, info.Volume = st.Regions, st.Blocks, st.Volume
	}
	return info
}

func contentType(output string) string {
	switch output {
	case render.OutputJSON:
		return "application/json"
	case render.OutputYAML:
		return "application/yaml"
	default:
		return "text/plain; charset=utf-8"
	}
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}

func writeBytes(w http.ResponseWriter, ctype string, data []byte) {
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
