package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/openclaw/dailyflows-gateway-go/internal/audit"
	apperrors "github.com/openclaw/dailyflows-gateway-go/internal/errors"
	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
	"github.com/openclaw/dailyflows-gateway-go/internal/pairing"
)

// PairingHandler issues pairing tickets and applies confirmed pairings to the
// config document.
type PairingHandler struct {
	registry *pairing.Registry
	store    *gatewaycfg.Store
}

func NewPairingHandler(registry *pairing.Registry, store *gatewaycfg.Store) *PairingHandler {
	return &PairingHandler{registry: registry, store: store}
}

// Issue handles GET /dailyflows/pair. It mints a short-lived pairing ticket
// and renders it either as JSON or as a scannable QR page.
func (h *PairingHandler) Issue(w http.ResponseWriter, r *http.Request) {
	accountID := strings.TrimSpace(r.URL.Query().Get("accountId"))

	rawURL := strings.TrimSpace(r.URL.Query().Get("gatewayUrl"))
	if rawURL == "" {
		rawURL = gatewayURLFromRequest(r)
	}
	gatewayURL, ok := pairing.NormalizeGatewayURL(rawURL)
	if !ok {
		if wantsJSON(r) {
			writeError(w, apperrors.ValidationError("gatewayUrl missing or invalid (https required)"))
			return
		}
		renderPairingPrompt(w, accountID)
		return
	}

	ticket, err := h.registry.Create(gatewayURL, accountID)
	if err != nil {
		log.Error().Err(err).Msg("failed to create pairing ticket")
		writeError(w, apperrors.Internal("failed to create pairing code"))
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventPairingCreated,
		AccountID: ticket.AccountID,
		Details: map[string]interface{}{
			"gateway_url": ticket.GatewayURL,
			"pair_code":   audit.MaskCode(ticket.Code),
		},
	})

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":         true,
			"gatewayUrl": ticket.GatewayURL,
			"accountId":  ticket.AccountID,
			"pairCode":   ticket.Code,
			"payload":    ticket.Payload,
			"expiresAt":  ticket.ExpiresAt.UnixMilli(),
		})
		return
	}

	png, err := qrcode.Encode(ticket.Payload, qrcode.Medium, 512)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode pairing qr")
		writeError(w, apperrors.Internal("failed to render pairing page"))
		return
	}
	renderPairingPage(w, pairingPageData{
		GatewayURL: ticket.GatewayURL,
		AccountID:  ticket.AccountID,
		PairCode:   ticket.Code,
		QRBase64:   base64.StdEncoding.EncodeToString(png),
		ExpiresIn:  int(ticket.ExpiresAt.Sub(ticket.CreatedAt).Minutes()),
	})
}

type confirmRequest struct {
	PairCode      string `json:"pairCode"`
	AccountID     string `json:"accountId"`
	WebhookSecret string `json:"webhookSecret"`
	OutboundURL   string `json:"outboundUrl"`
	OutboundToken string `json:"outboundToken"`
	WebhookPath   string `json:"webhookPath"`
}

// Confirm handles POST /dailyflows/pair: the companion app redeems its pair
// code and hands over the credentials to store.
func (h *PairingHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.ValidationError("invalid json"))
		return
	}

	pairCode := strings.TrimSpace(req.PairCode)
	webhookSecret := strings.TrimSpace(req.WebhookSecret)
	outboundURL := strings.TrimSpace(req.OutboundURL)
	outboundToken := strings.TrimSpace(req.OutboundToken)
	if pairCode == "" || webhookSecret == "" || outboundURL == "" || outboundToken == "" {
		writeError(w, apperrors.ValidationError("missing required fields"))
		return
	}

	ticket, ok := h.registry.Consume(pairCode)
	if !ok {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventPairingDenied,
			Details: map[string]interface{}{"pair_code": audit.MaskCode(pairCode)},
		})
		writeError(w, apperrors.InvalidPairingCode())
		return
	}

	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		accountID = ticket.AccountID
	}

	err := h.store.Update(func(doc gatewaycfg.Document) (gatewaycfg.Document, error) {
		return gatewaycfg.ApplyPairing(doc, gatewaycfg.PairingUpdate{
			AccountID:     accountID,
			WebhookSecret: webhookSecret,
			OutboundURL:   outboundURL,
			OutboundToken: outboundToken,
			WebhookPath:   strings.TrimSpace(req.WebhookPath),
		})
	})
	if err != nil {
		log.Error().Err(err).Str("accountId", accountID).Msg("failed to persist pairing")
		writeError(w, apperrors.ConfigWriteFailed(err))
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:      audit.EventPairingConfirmed,
		AccountID: accountID,
		Details:   map[string]interface{}{"pair_code": audit.MaskCode(pairCode)},
	})
	log.Info().Str("accountId", accountID).Msg("pairing confirmed")

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// gatewayURLFromRequest reconstructs the externally visible origin from
// forwarding headers, falling back to the request host.
func gatewayURLFromRequest(r *http.Request) string {
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return ""
	}
	scheme := r.Header.Get("X-Forwarded-Proto")
	if idx := strings.IndexByte(scheme, ','); idx >= 0 {
		scheme = scheme[:idx]
	}
	scheme = strings.TrimSpace(scheme)
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	return scheme + "://" + host
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
