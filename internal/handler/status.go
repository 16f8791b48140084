package handler

import (
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/dailyflows-gateway-go/internal/errors"
	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
)

// StatusHandler reports the pairing state of every configured account
// without disclosing any secret material.
type StatusHandler struct {
	store *gatewaycfg.Store
}

func NewStatusHandler(store *gatewaycfg.Store) *StatusHandler {
	return &StatusHandler{store: store}
}

type accountStatus struct {
	AccountID   string `json:"accountId"`
	Name        string `json:"name,omitempty"`
	Enabled     bool   `json:"enabled"`
	Configured  bool   `json:"configured"`
	OutboundURL string `json:"outboundUrl,omitempty"`
}

func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load()
	if err != nil {
		log.Error().Err(err).Msg("status: failed to load config")
		writeError(w, apperrors.Internal("failed to read configuration"))
		return
	}
	ch, err := doc.Channel()
	if err != nil {
		log.Error().Err(err).Msg("status: malformed channel config")
		writeError(w, apperrors.Internal("failed to read configuration"))
		return
	}

	accounts := make([]accountStatus, 0)
	for _, id := range ch.ListAccountIDs() {
		resolved := ch.ResolveAccount(id)
		accounts = append(accounts, accountStatus{
			AccountID:   resolved.AccountID,
			Name:        resolved.Name,
			Enabled:     resolved.Enabled,
			Configured:  resolved.Configured(),
			OutboundURL: resolved.OutboundURL,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":          true,
		"channel":     gatewaycfg.ChannelID,
		"webhookPath": ch.WebhookPathOrDefault(),
		"accounts":    accounts,
	})
}
