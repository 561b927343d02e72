package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/moview/moview/internal/automation"
	"github.com/moview/moview/internal/config"
	"github.com/moview/moview/internal/database"
	"github.com/moview/moview/internal/models"
	"github.com/moview/moview/internal/settings"
	"github.com/moview/moview/pkg/vision"
)

type Handler struct {
	config *config.Config
	engine *automation.Engine
	store  *settings.Store
	repo   *database.Repository
	hub    *stateHub
}

func NewHandler(cfg *config.Config, engine *automation.Engine, store *settings.Store, repo *database.Repository) *Handler {
	h := &Handler{
		config: cfg,
		engine: engine,
		store:  store,
		repo:   repo,
		hub:    newStateHub(),
	}
	engine.OnStateChanged(h.hub.broadcast)
	return h
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", h.handleState)
	mux.HandleFunc("/api/settings", h.handleSettings)
	mux.HandleFunc("/api/switches", h.handleSwitches)
	mux.HandleFunc("/api/switches/latest", h.handleLatestSwitch)
	mux.HandleFunc("/api/summary", h.handleSummary)
	mux.HandleFunc("/api/force-switch", h.handleForceSwitch)
	mux.HandleFunc("/api/presence", h.handlePresence)
	mux.HandleFunc("/ws", h.handleStateStream)

	mux.HandleFunc("/health", h.handleHealth)

	mux.HandleFunc("/", h.handleIndex)
}

func (h *Handler) closeStreams() {
	h.hub.closeAll()
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, h.engine.State())
}

func (h *Handler) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, h.store.Get())

	case http.MethodPut, http.MethodPost:
		var next settings.AppSettings
		if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
			http.Error(w, fmt.Sprintf("Invalid settings payload: %v", err), http.StatusBadRequest)
			return
		}
		if err := h.store.Set(next); err != nil {
			http.Error(w, fmt.Sprintf("Failed to save settings: %v", err), http.StatusInternalServerError)
			return
		}
		respondJSON(w, h.store.Get())

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleSwitches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid since parameter: %v", err), http.StatusBadRequest)
			return
		}
		since = parsed
	}

	events, err := h.repo.GetEventsSince(since)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch switch events: %v", err), http.StatusInternalServerError)
		return
	}

	limit := 100 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if len(events) > limit {
		events = events[len(events)-limit:]
	}

	respondJSON(w, events)
}

func (h *Handler) handleLatestSwitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	event, err := h.repo.GetLatest()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch latest event: %v", err), http.StatusInternalServerError)
		return
	}

	if event == nil {
		http.Error(w, "No switch events found", http.StatusNotFound)
		return
	}

	respondJSON(w, event)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	since := time.Now().Add(-24 * time.Hour)
	summaries, err := h.repo.GetTargetSummarySince(since)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to get summary: %v", err), http.StatusInternalServerError)
		return
	}

	report := buildReport(since, summaries)
	respondJSON(w, report)
}

func (h *Handler) handleForceSwitch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	result := h.engine.ForceSwitch()
	if !result.Success {
		w.WriteHeader(http.StatusBadGateway)
	}
	respondJSON(w, result)
}

// presencePayload is the wire form of one detection frame posted by an
// external camera/inference process. Pixels are raw RGBA, base64-encoded,
// and optional: without them the motion score stays 0.
type presencePayload struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pixels []byte `json:"pixels,omitempty"`
	Faces  []struct {
		Confidence float64   `json:"confidence"`
		Embedding  []float64 `json:"embedding,omitempty"`
	} `json:"faces"`
	Bodies []struct {
		Confidence float64 `json:"confidence"`
	} `json:"bodies"`
}

func (h *Handler) handlePresence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload presencePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("Invalid presence payload: %v", err), http.StatusBadRequest)
		return
	}

	frame := &vision.Frame{
		Width:  payload.Width,
		Height: payload.Height,
		Pixels: payload.Pixels,
	}
	for _, face := range payload.Faces {
		frame.Detections.Faces = append(frame.Detections.Faces, vision.FaceObservation{
			Confidence: face.Confidence,
			Embedding:  face.Embedding,
		})
	}
	for _, body := range payload.Bodies {
		frame.Detections.Bodies = append(frame.Detections.Bodies, vision.BodyObservation{
			Confidence: body.Confidence,
		})
	}

	h.engine.OnPresenceUpdate(frame)
	respondJSON(w, h.engine.State())
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	respondJSON(w, map[string]interface{}{
		"name": "moview",
		"endpoints": []string{
			"/api/state",
			"/api/settings",
			"/api/switches",
			"/api/switches/latest",
			"/api/summary",
			"/api/force-switch",
			"/ws",
			"/health",
		},
	})
}

func buildReport(since time.Time, summaries []models.TargetSummary) *models.SwitchReport {
	report := &models.SwitchReport{
		Since:       since,
		Targets:     summaries,
		GeneratedAt: time.Now(),
	}
	for i := range summaries {
		report.TotalCount += summaries[i].SwitchCount
		report.SuccessCount += summaries[i].SuccessCount
		if summaries[i].SwitchCount > 0 {
			summaries[i].SuccessRate = float64(summaries[i].SuccessCount) / float64(summaries[i].SwitchCount) * 100.0
		}
	}
	return report
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
