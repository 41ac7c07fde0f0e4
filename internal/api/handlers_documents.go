package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/notedit/internal/doctree"
	"github.com/dgallion1/notedit/internal/outline"
	"github.com/dgallion1/notedit/internal/pipeline"
	"github.com/dgallion1/notedit/internal/render"
)

type previewResponse struct {
	HTML     string `json:"html"`
	Revision string `json:"revision"`
	Anchors  []int  `json:"anchors"`
	Busy     bool   `json:"busy,omitempty"`
}

func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	var req outlineRequest
	if err := decodeJSON(w, r, s.cfg.MaxDocumentBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	headers := outline.Extract(req.Text, nil)
	if headers == nil {
		headers = []*doctree.HeaderNode{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"headers": headers})
}

// handleRender renders synchronously, outside any session.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := decodeJSON(w, r, s.cfg.MaxDocumentBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	html, err := s.orchestrator.Renderer().Render(r.Context(), req.Text, req.Attachments)
	if err != nil {
		s.log.Warn("render failed", "error", err)
		jsonError(w, "render failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, s.preview(doctree.ParsedDocument{
		HTML:     html,
		Revision: pipeline.ContentHashHex([]byte(req.Text)),
	}, false))
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	id, _, err := s.orchestrator.OpenSession()
	if err != nil {
		writeSessionError(w, err)
		return
	}
	s.log.Info("session opened", "session_id", id)
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": id})
}

func (s *Server) handleSubmitDocument(w http.ResponseWriter, r *http.Request) {
	session, err := s.orchestrator.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	var req documentRequest
	if err := decodeJSON(w, r, s.cfg.MaxDocumentBytes, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if err := session.Submit(req.Document()); err != nil {
		writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"revision": pipeline.ContentHashHex([]byte(req.Text)),
	})
}

// handlePreview returns the last successful render. A failed render leaves
// the previous preview in place.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	session, err := s.orchestrator.Session(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeSessionError(w, err)
		return
	}

	latest, ok := session.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, s.preview(latest, session.Busy()))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.orchestrator.CloseSession(id); err != nil {
		writeSessionError(w, err)
		return
	}
	s.log.Info("session closed", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) preview(p doctree.ParsedDocument, busy bool) previewResponse {
	anchors, err := render.SourceLines(p.HTML)
	if err != nil {
		s.log.Warn("reading source lines", "error", err)
	}
	if anchors == nil {
		anchors = []int{}
	}
	return previewResponse{HTML: p.HTML, Revision: p.Revision, Anchors: anchors, Busy: busy}
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pipeline.ErrSessionNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, pipeline.ErrDisposed):
		jsonError(w, err.Error(), http.StatusGone)
	case errors.Is(err, pipeline.ErrTooManySessions):
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
