package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"chxbot/models"
)

// BotStatusSource is what the status endpoints report on
type BotStatusSource interface {
	HeartbeatLatency() time.Duration
}

type CommandCatalog interface {
	Descriptors() []models.CommandDescriptor
}

type commandParameterResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
}

type commandResponse struct {
	Name               string                     `json:"name"`
	Description        string                     `json:"description"`
	Parameters         []commandParameterResponse `json:"parameters"`
	RequiredPermission string                     `json:"required_permission,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
}

// StatusHTTPHandler serves the operator-facing health and command catalog endpoints
type StatusHTTPHandler struct {
	bot     BotStatusSource
	catalog CommandCatalog
}

func NewStatusHTTPHandler(bot BotStatusSource, catalog CommandCatalog) *StatusHTTPHandler {
	return &StatusHTTPHandler{bot: bot, catalog: catalog}
}

func (h *StatusHTTPHandler) SetupEndpoints(router *mux.Router) {
	router.HandleFunc("/health", h.handleHealth).Methods("GET")
	router.HandleFunc("/commands", h.handleListCommands).Methods("GET")
}

func (h *StatusHTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		LatencyMs: max(h.bot.HeartbeatLatency().Milliseconds(), 0),
	})
}

func (h *StatusHTTPHandler) handleListCommands(w http.ResponseWriter, r *http.Request) {
	commands := lo.Map(h.catalog.Descriptors(), func(d models.CommandDescriptor, _ int) commandResponse {
		resp := commandResponse{
			Name:        d.Name,
			Description: d.Description,
			Parameters: lo.Map(d.Parameters, func(p models.CommandParameter, _ int) commandParameterResponse {
				return commandParameterResponse{
					Name:        p.Name,
					Description: p.Description,
					Type:        string(p.Type),
					Required:    p.Required,
				}
			}),
		}
		if perm, ok := d.RequiredPermission.Get(); ok {
			resp.RequiredPermission = perm.String()
		}
		return resp
	})

	writeJSON(w, http.StatusOK, commands)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("❌ Failed to write JSON response: %v", err)
	}
}
