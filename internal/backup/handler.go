package backup

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/transport"
	"github.com/opsboard/backend/pkg/logger"
)

type ServiceAPI interface {
	Export(snapshotType SnapshotType) ([]byte, error)
	Restore(actor *authz.Subject, raw []byte) error
}

type Handler struct {
	*transport.BaseHandler
	Service   ServiceAPI
	Scheduler *Scheduler
}

func NewHandler(svc ServiceAPI, scheduler *Scheduler) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		Scheduler:   scheduler,
	}
}

// Export downloads a manual snapshot of the full dashboard state.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	raw, err := h.Service.Export(SnapshotManual)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("opsboard-backup-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		h.Logger.Error("Export: write failed", "error", err)
	}
}

// Restore replaces the full dashboard state from an uploaded snapshot.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 32<<20))
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "failed to read snapshot payload")
		return
	}

	if err := h.Service.Restore(subject, raw); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// Reconfigure changes the auto-snapshot interval at runtime.
func (h *Handler) Reconfigure(w http.ResponseWriter, r *http.Request) {
	if h.Scheduler == nil {
		h.WriteError(w, http.StatusServiceUnavailable, "backup scheduler is not running")
		return
	}

	var dto struct {
		IntervalMinutes int `json:"intervalMinutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Scheduler.Reconfigure(dto.IntervalMinutes); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int{"intervalMinutes": dto.IntervalMinutes})
}
