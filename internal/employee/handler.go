package employee

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/opsboard/backend/internal/authz"
	"github.com/opsboard/backend/internal/transport"
	"github.com/opsboard/backend/pkg/logger"
)

type ServiceAPI interface {
	Create(actor *authz.Subject, dto CreateEmployeeDTO) (*Employee, error)
	GetByID(actor *authz.Subject, id int64) (*Employee, error)
	List(actor *authz.Subject, includeDismissed bool) ([]*Employee, error)
	Update(actor *authz.Subject, id int64, dto UpdateEmployeeDTO) (*Employee, error)
	Dismiss(actor *authz.Subject, id int64, dto DismissEmployeeDTO) (*Employee, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var dto CreateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	e, err := h.Service.Create(actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	includeDismissed := r.URL.Query().Get("includeDismissed") == "true"

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	list, err := h.Service.List(actor, includeDismissed)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if list == nil {
		list = []*Employee{}
	}
	h.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	e, err := h.Service.GetByID(actor, id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var dto UpdateEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	e, err := h.Service.Update(actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) DismissEmployee(w http.ResponseWriter, r *http.Request) {
	id, ok := h.employeeID(w, r)
	if !ok {
		return
	}
	var dto DismissEmployeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	e, err := h.Service.Dismiss(actor, id, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (*authz.Subject, bool) {
	subject, ok := authz.SubjectFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	return subject, true
}

func (h *Handler) employeeID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid employee id")
		return 0, false
	}
	return id, true
}
