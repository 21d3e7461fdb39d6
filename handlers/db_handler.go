package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"hanyang/internal/database"
	"hanyang/internal/network"
	"hanyang/pkg/logger"
)

// DBHandler exposes database monitoring and operations endpoints.
type DBHandler struct {
	db      *database.DB
	repo    *database.Repository
	backups *database.BackupManager
	maint   *database.Maintainer
	hub     *network.Hub
	logger  *logger.ColoredLogger
}

// NewDBHandler creates a new database admin handler.
func NewDBHandler(db *database.DB, repo *database.Repository, backups *database.BackupManager, maint *database.Maintainer, hub *network.Hub) *DBHandler {
	return &DBHandler{
		db:      db,
		repo:    repo,
		backups: backups,
		maint:   maint,
		hub:     hub,
		logger:  logger.CreateAILogger("DatabaseAPI", logger.ColorBrightRed),
	}
}

// RegisterRoutes registers the database admin routes on the
// authenticated /api subrouter.
func (h *DBHandler) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/db/stats", h.handleStats).Methods(http.MethodGet)
	api.HandleFunc("/db/backup", h.handleBackup).Methods(http.MethodPost)

	h.logger.Info("Database admin routes registered")
}

func (h *DBHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	sizes, err := h.db.GetDatabaseSize()
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read database size: "+err.Error())
		return
	}

	tables, err := h.db.GetTableSizes()
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to read table sizes: "+err.Error())
		return
	}

	byStatus, err := h.repo.Games.CountGamesByStatus(r.Context())
	if err != nil {
		h.writeErrorResponse(w, http.StatusInternalServerError, "Failed to count games: "+err.Error())
		return
	}

	response := map[string]interface{}{
		"database_size":   sizes,
		"table_sizes":     tables,
		"games_by_status": byStatus,
		"maintenance":     h.maint.Stats(),
		"websocket": map[string]int{
			"sessions": h.hub.SessionCount(),
			"rooms":    h.hub.RoomCount(),
		},
		"timestamp": time.Now(),
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *DBHandler) handleBackup(w http.ResponseWriter, r *http.Request) {
	info, err := h.backups.CreateBackup()
	if err != nil {
		h.logger.Error("On-demand backup failed: %v", err)
		h.writeErrorResponse(w, http.StatusInternalServerError, "Backup failed: "+err.Error())
		return
	}

	h.logger.Info("On-demand backup created: %s (%d bytes)", info.Filename, info.Size)
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"message": "Backup created successfully",
		"backup":  info,
	})
}

func (h *DBHandler) writeJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON response: %v", err)
	}
}

func (h *DBHandler) writeErrorResponse(w http.ResponseWriter, status int, message string) {
	h.writeJSONResponse(w, status, map[string]interface{}{
		"error":     message,
		"status":    status,
		"timestamp": time.Now(),
	})
}
