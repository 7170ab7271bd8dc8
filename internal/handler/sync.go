package handler

import (
	"net/http"
)

type syncStatus struct {
	Online  bool `json:"online"`
	Pending int  `json:"pending"`
}

func (h *Handler) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "fetched sync status", syncStatus{
		Online:  h.engine.Online(),
		Pending: len(h.engine.PendingActions()),
	})
}

func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	delivered, err := h.engine.Sync(r.Context())
	remaining := len(h.engine.PendingActions())

	if err != nil {
		h.successResponse(w, r, "sync incomplete, remote still unreachable", map[string]int{
			"delivered": delivered,
			"remaining": remaining,
		})
		return
	}

	h.successResponse(w, r, "sync complete", map[string]int{
		"delivered": delivered,
		"remaining": remaining,
	})
}
