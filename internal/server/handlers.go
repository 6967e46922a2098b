package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"go.klb.dev/clipbridge/internal/history"
	"go.klb.dev/clipbridge/internal/hub"
	"go.klb.dev/clipbridge/internal/snapshot"
)

// maxRequestBytes caps POST bodies; generous because image uploads arrive
// base64-inflated.
const maxRequestBytes = 50 << 20

type setRequest struct {
	Content  string `json:"content"`
	Mime     string `json:"type"`
	IsBase64 bool   `json:"is_base64"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type statusResponse struct {
	Running            bool   `json:"running"`
	IP                 string `json:"ip"`
	ClipboardAvailable bool   `json:"clipboard_available"`
}

type historyResponse struct {
	Success bool            `json:"success"`
	History []history.Entry `json:"history"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response write failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorResponse{Error: err.Error()})
}

func (s *Server) handleGetClipboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.clip.Read()
	if err != nil {
		slog.Warn("clipboard read failed", "err", err)
		writeError(w, err)
		return
	}

	// A manual fetch counts as an observation too.
	if snap.Content != "" && s.settings.Current().EnableHistory {
		s.hist.Add(snap.Content, snap.Mime, snap.Binary)
	}

	writeJSON(w, hub.UpdateFor(snap))
}

func (s *Server) handleSetClipboard(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, err)
		return
	}
	if req.Mime == "" {
		req.Mime = snapshot.MimeText
	}

	if err := s.clip.Write(req.Content, req.Mime, req.IsBase64); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, successResponse{Success: true})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResponse{
		Running:            true,
		IP:                 localIP(),
		ClipboardAvailable: s.clip.Available(),
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	limit := s.settings.Current().MaxHistory
	writeJSON(w, historyResponse{
		Success: true,
		History: s.hist.List(limit),
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.hist.Clear()
	writeJSON(w, successResponse{Success: true})
}

// handleRestoreHistory puts a previously captured entry back on the
// clipboard. Binary entries are stored base64, which is exactly the encoded
// form Write expects.
func (s *Server) handleRestoreHistory(w http.ResponseWriter, r *http.Request) {
	var entry history.Entry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&entry); err != nil {
		writeError(w, err)
		return
	}
	mime := entry.Mime
	if mime == "" {
		mime = snapshot.MimeText
	}

	if err := s.clip.Write(entry.Content, mime, entry.IsBinary); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, successResponse{Success: true})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.settings.Load())
}

func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&updates); err != nil {
		writeError(w, err)
		return
	}

	before := s.settings.Current().Port
	after, err := s.settings.Save(updates)
	if err != nil {
		slog.Error("settings save failed", "err", err)
		writeError(w, err)
		return
	}
	if after.Port != before {
		slog.Info("port change saved, takes effect on next serve", "old", before, "new", after.Port)
	}
	writeJSON(w, successResponse{Success: true})
}
