package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/dailyflows-gateway-go/internal/audit"
	"github.com/openclaw/dailyflows-gateway-go/internal/config"
	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
	"github.com/openclaw/dailyflows-gateway-go/internal/model"
	"github.com/openclaw/dailyflows-gateway-go/internal/repository"
	"github.com/openclaw/dailyflows-gateway-go/internal/signature"
)

const (
	HeaderTimestamp = "X-Dailyflows-Timestamp"
	HeaderSignature = "X-Dailyflows-Signature"
	HeaderEvent     = "X-Dailyflows-Event"
)

// InboundProcessor consumes validated webhook payloads after the HTTP
// response has been written.
type InboundProcessor interface {
	Process(ctx context.Context, payload model.WebhookPayload) error
}

// WebhookHandler authenticates inbound Dailyflows webhooks: path and method,
// header presence, timestamp freshness, payload shape, event consistency,
// secret resolution and finally the signature itself. It fails closed.
type WebhookHandler struct {
	store       *gatewaycfg.Store
	processor   InboundProcessor
	deliveryLog repository.DeliveryLogRepository
	maxSkew     time.Duration
	now         func() time.Time
}

func NewWebhookHandler(store *gatewaycfg.Store, processor InboundProcessor, deliveryLog repository.DeliveryLogRepository) *WebhookHandler {
	return &WebhookHandler{
		store:       store,
		processor:   processor,
		deliveryLog: deliveryLog,
		maxSkew:     config.MaxSignatureSkew,
		now:         time.Now,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Load()
	if err != nil {
		log.Error().Err(err).Msg("webhook: failed to load config")
		writeText(w, http.StatusInternalServerError, "config unavailable")
		return
	}
	ch, err := doc.Channel()
	if err != nil {
		log.Error().Err(err).Msg("webhook: malformed channel config")
		writeText(w, http.StatusInternalServerError, "config unavailable")
		return
	}

	// A different path is not ours to answer.
	if r.URL.Path != ch.WebhookPathOrDefault() {
		http.NotFound(w, r)
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeText(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	timestamp := trimHeader(r, HeaderTimestamp)
	sig := trimHeader(r, HeaderSignature)
	eventType := trimHeader(r, HeaderEvent)

	if timestamp == "" || sig == "" {
		writeText(w, http.StatusBadRequest, "missing signature headers")
		return
	}

	parsedTimestamp, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid timestamp")
		return
	}

	skew := h.now().UnixMilli() - parsedTimestamp
	if skew < 0 {
		skew = -skew
	}
	if skew > h.maxSkew.Milliseconds() {
		h.reject(r, "", "stale_timestamp")
		writeText(w, http.StatusUnauthorized, "stale timestamp")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid payload")
		return
	}

	var payload model.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || !payload.Valid() {
		writeText(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if eventType != "" && eventType != payload.Type {
		writeText(w, http.StatusBadRequest, "event mismatch")
		return
	}

	secret := ch.ResolveWebhookSecret(payload.AccountID)
	if secret == "" {
		h.reject(r, payload.AccountID, "secret_not_configured")
		writeText(w, http.StatusUnauthorized, "webhook secret not configured")
		return
	}

	if !signature.Verify(secret, timestamp, sig, string(body)) {
		h.reject(r, payload.AccountID, "invalid_signature")
		writeText(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	// Acknowledge before processing: a downstream failure must not make the
	// provider retry an event we already accepted.
	writeText(w, http.StatusOK, "ok")

	go h.process(payload, body)
}

func (h *WebhookHandler) process(payload model.WebhookPayload, raw []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), config.ServerRequestTimeout)
	defer cancel()

	accountID := payload.AccountID
	if accountID == "" {
		accountID = gatewaycfg.DefaultAccountID
	}
	conversationID := ""
	if payload.Message != nil {
		conversationID = payload.Message.ConversationID
		if conversationID == "" {
			conversationID = payload.Message.SenderID
		}
	}
	if err := h.deliveryLog.RecordInbound(ctx, model.RecordInboundParams{
		EventID:        payload.ID,
		AccountID:      accountID,
		ConversationID: conversationID,
		Payload:        json.RawMessage(raw),
	}); err != nil {
		log.Warn().Err(err).Str("eventId", payload.ID).Msg("failed to record inbound event")
	}

	if err := h.processor.Process(ctx, payload); err != nil {
		log.Error().Err(err).Str("eventId", payload.ID).Msg("dailyflows webhook handler failed")
	}
}

func (h *WebhookHandler) reject(r *http.Request, accountID, reason string) {
	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventWebhookRejected,
		AccountID: accountID,
		Details:   map[string]interface{}{"reason": reason},
	})
}

func trimHeader(r *http.Request, name string) string {
	return strings.TrimSpace(r.Header.Get(name))
}
