package activity

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/transport"
	"github.com/opsboard/backend/pkg/logger"
)

type ServiceAPI interface {
	Record(in RecordInput) (*Entry, error)
	Query(filter Filter) ([]*Entry, error)
	Vocabularies() (*Vocabularies, error)
	Export(entries []*Entry) ([]byte, error)
	Import(raw []byte) error
	ClearAll() error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     service,
	}
}

func queryFromRequest(r *http.Request) QueryDTO {
	q := r.URL.Query()
	return QueryDTO{
		FromDate: q.Get("fromDate"),
		ToDate:   q.Get("toDate"),
		UserName: q.Get("userName"),
		Action:   q.Get("action"),
		Category: q.Get("category"),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := queryFromRequest(r).ToFilter()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.Service.Query(filter)
	if err != nil {
		h.Logger.Error("List: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}

func (h *Handler) GetVocabularies(w http.ResponseWriter, r *http.Request) {
	vocab, err := h.Service.Vocabularies()
	if err != nil {
		h.Logger.Error("GetVocabularies: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, vocab)
}

// Export streams a lossless snapshot of the (optionally filtered) log and
// leaves its own trace in the ledger under the "export" category.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := queryFromRequest(r).ToFilter()
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	entries, err := h.Service.Query(filter)
	if err != nil {
		h.Logger.Error("Export: query error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	raw, err := h.Service.Export(entries)
	if err != nil {
		h.Logger.Error("Export: serialization error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	if subject, ok := authz.SubjectFromContext(r.Context()); ok {
		if _, err := h.Service.Record(RecordInput{
			UserID:   subject.ID,
			UserName: subject.Name,
			Category: CategoryExport,
			Action:   "Exportar",
			Details:  fmt.Sprintf("Exportados %d registros de auditoria", len(entries)),
		}); err != nil {
			h.Logger.Error("Export: failed to record export in ledger", "error", err)
		}
	}

	filename := fmt.Sprintf("activity-log-%s.json", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		h.Logger.Error("Export: write failed", "error", err)
	}
}

// Restore replaces the log from an export payload. Gated superadmin at the
// router; ids and timestamps in the payload are preserved as-is.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := h.Service.Import(raw); err != nil {
		h.Logger.Error("Restore: import failed", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}

// Clear empties the log. The confirm parameter is the caller's statement
// that the user approved an irreversible operation.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		h.WriteError(w, http.StatusBadRequest, "clearing the activity log requires confirm=true")
		return
	}

	if err := h.Service.ClearAll(); err != nil {
		h.Logger.Error("Clear: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	subject, _ := authz.SubjectFromContext(r.Context())
	if subject != nil {
		h.Logger.Info("activity log cleared", "user_id", subject.ID, "user_name", subject.Name)
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
