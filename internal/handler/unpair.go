package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/dailyflows-gateway-go/internal/audit"
	apperrors "github.com/openclaw/dailyflows-gateway-go/internal/errors"
	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
)

// UnpairHandler revokes an account's credentials. The caller proves control
// of the pairing by presenting either the outbound token or the webhook
// secret currently on file.
type UnpairHandler struct {
	store *gatewaycfg.Store
}

func NewUnpairHandler(store *gatewaycfg.Store) *UnpairHandler {
	return &UnpairHandler{store: store}
}

type unpairRequest struct {
	AccountID     string `json:"accountId"`
	OutboundToken string `json:"outboundToken"`
	WebhookSecret string `json:"webhookSecret"`
}

func (h *UnpairHandler) Unpair(w http.ResponseWriter, r *http.Request) {
	var req unpairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("invalid json"))
		return
	}

	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		accountID = gatewaycfg.DefaultAccountID
	}

	doc, err := h.store.Load()
	if err != nil {
		log.Error().Err(err).Msg("unpair: failed to load config")
		writeError(w, apperrors.Internal("failed to read configuration"))
		return
	}
	ch, err := doc.Channel()
	if err != nil {
		log.Error().Err(err).Msg("unpair: malformed channel config")
		writeError(w, apperrors.Internal("failed to read configuration"))
		return
	}

	expectedToken := strings.TrimSpace(ch.ResolveAccount(accountID).OutboundToken)
	expectedSecret := ch.ResolveWebhookSecret(accountID)
	if !credentialMatches(req.OutboundToken, expectedToken) && !credentialMatches(req.WebhookSecret, expectedSecret) {
		audit.LogFromRequest(r, audit.Event{Type: audit.EventUnpairDenied, AccountID: accountID})
		writeError(w, apperrors.Unauthorized("unauthorized"))
		return
	}

	err = h.store.Update(func(doc gatewaycfg.Document) (gatewaycfg.Document, error) {
		return gatewaycfg.ApplyUnpairing(doc, accountID)
	})
	if err != nil {
		log.Error().Err(err).Str("accountId", accountID).Msg("failed to persist unpairing")
		writeError(w, apperrors.ConfigWriteFailed(err))
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventUnpairSuccess, AccountID: accountID})
	log.Info().Str("accountId", accountID).Msg("account unpaired")

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func credentialMatches(supplied, expected string) bool {
	supplied = strings.TrimSpace(supplied)
	if supplied == "" || expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) == 1
}
