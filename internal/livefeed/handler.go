package livefeed

import (
	"net/http"
	"strconv"

	"github.com/opsboard/backend/internal/transport"
	"github.com/opsboard/backend/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Feed *Feed
}

func NewHandler(feed *Feed) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Feed:        feed,
	}
}

// ListUpdates returns the most recent mutation notices, newest first.
func (h *Handler) ListUpdates(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	notices := h.Feed.Recent(limit)
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"updates": notices,
		"total":   len(notices),
	})
}
