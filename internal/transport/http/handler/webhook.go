package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/intake-api/internal/application/binding"
	"github.com/intake-api/internal/infrastructure/telegram"
)

// WebhookHandler ingests inbound events pushed by the messaging platform.
type WebhookHandler struct {
	bindings binding.Service
}

func NewWebhookHandler(bindings binding.Service) *WebhookHandler {
	return &WebhookHandler{bindings: bindings}
}

// Receive always answers 200 {ok:true}: any other status makes the platform
// retry the same update in a loop. Processing failures are logged only.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var upd telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		slog.Warn("undecodable webhook payload", "err", err)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	h.bindings.HandleUpdate(r.Context(), upd)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
