package api

import (
	"net/http"

	"github.com/dgallion1/notedit/internal/doctree"
	"github.com/dgallion1/notedit/internal/scrollsync"
)

// syncBodyLimit bounds geometry and anchor payloads.
const syncBodyLimit = 1 << 20

// handleSyncPercentage maps the source pane's relative position onto the
// target pane's geometry.
func (s *Server) handleSyncPercentage(w http.ResponseWriter, r *http.Request) {
	var req percentageRequest
	if err := decodeJSON(w, r, syncBodyLimit, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	top := scrollsync.TopForPercentage(req.Target, req.Source.Percentage())
	target := req.Target
	target.ScrollTop = top
	writeJSON(w, http.StatusOK, doctree.ScrollState{
		ScrollTop:        top,
		ScrollPercentage: target.Percentage(),
	})
}

// handleSyncAnchor picks the anchor nearest to an editor line.
func (s *Server) handleSyncAnchor(w http.ResponseWriter, r *http.Request) {
	var req anchorRequest
	if err := decodeJSON(w, r, syncBodyLimit, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	idx, ok := scrollsync.NearestAnchor(req.Anchors, *req.Line)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"index": idx, "line": req.Anchors[idx]})
}
