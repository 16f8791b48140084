package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
	"github.com/openclaw/dailyflows-gateway-go/internal/pairing"
)

func newPairingHandler(t *testing.T) (*PairingHandler, *pairing.Registry, *gatewaycfg.Store) {
	t.Helper()
	registry := pairing.NewRegistry(10 * time.Minute)
	store := gatewaycfg.NewStore(filepath.Join(t.TempDir(), "openclaw.json"))
	return NewPairingHandler(registry, store), registry, store
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestPairingIssue(t *testing.T) {
	t.Run("returns a ticket as json", func(t *testing.T) {
		h, registry, _ := newPairingHandler(t)

		r := httptest.NewRequest(http.MethodGet, "/dailyflows/pair?format=json&gatewayUrl=https://gw.example.com&accountId=work", nil)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, "https://gw.example.com", body["gatewayUrl"])
		assert.Equal(t, "work", body["accountId"])
		assert.Len(t, body["pairCode"], 32)
		assert.Contains(t, body["payload"], `"type":"openclaw.dailyflows.pair"`)
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("derives the gateway url from forwarding headers", func(t *testing.T) {
		h, _, _ := newPairingHandler(t)

		r := httptest.NewRequest(http.MethodGet, "/dailyflows/pair?format=json", nil)
		r.Header.Set("X-Forwarded-Proto", "https")
		r.Header.Set("X-Forwarded-Host", "gw.example.com")
		w := httptest.NewRecorder()
		h.Issue(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, "https://gw.example.com", body["gatewayUrl"])
		assert.Equal(t, "default", body["accountId"])
	})

	t.Run("rejects a plain-http public url", func(t *testing.T) {
		h, _, _ := newPairingHandler(t)

		r := httptest.NewRequest(http.MethodGet, "/dailyflows/pair?format=json&gatewayUrl=http://gw.example.com", nil)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeJSON(t, w)
		assert.Equal(t, false, body["ok"])
	})

	t.Run("allows http for localhost", func(t *testing.T) {
		h, _, _ := newPairingHandler(t)

		r := httptest.NewRequest(http.MethodGet, "/dailyflows/pair?format=json&gatewayUrl=http://localhost:8080", nil)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "http://localhost:8080", decodeJSON(t, w)["gatewayUrl"])
	})

	t.Run("renders a qr page for browsers", func(t *testing.T) {
		h, _, _ := newPairingHandler(t)

		r := httptest.NewRequest(http.MethodGet, "/dailyflows/pair?gatewayUrl=https://gw.example.com", nil)
		w := httptest.NewRecorder()
		h.Issue(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "data:image/png;base64,")
	})

	t.Run("prompts for a url when none can be derived", func(t *testing.T) {
		h, registry, _ := newPairingHandler(t)

		r := httptest.NewRequest(http.MethodGet, "/dailyflows/pair", nil)
		r.Host = ""
		w := httptest.NewRecorder()
		h.Issue(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `name="gatewayUrl"`)
		assert.Equal(t, 0, registry.Len())
	})
}

func TestPairingConfirm(t *testing.T) {
	issue := func(t *testing.T, registry *pairing.Registry, accountID string) pairing.Ticket {
		t.Helper()
		ticket, err := registry.Create("https://gw.example.com", accountID)
		require.NoError(t, err)
		return ticket
	}

	confirm := func(h *PairingHandler, body string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/dailyflows/pair", strings.NewReader(body))
		w := httptest.NewRecorder()
		h.Confirm(w, r)
		return w
	}

	t.Run("provisions the account in one write", func(t *testing.T) {
		h, registry, store := newPairingHandler(t)
		ticket := issue(t, registry, "work")

		w := confirm(h, `{
			"pairCode": "`+ticket.Code+`",
			"webhookSecret": "shh",
			"outboundUrl": "https://flows.example.com/api",
			"outboundToken": "tok"
		}`)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decodeJSON(t, w)["ok"])

		doc, err := store.Load()
		require.NoError(t, err)
		ch, err := doc.Channel()
		require.NoError(t, err)
		account := ch.ResolveAccount("work")
		assert.True(t, account.Enabled)
		assert.Equal(t, "shh", account.WebhookSecret)
		assert.Equal(t, "https://flows.example.com/api", account.OutboundURL)
		assert.Equal(t, "tok", account.OutboundToken)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		h, registry, _ := newPairingHandler(t)
		ticket := issue(t, registry, "")

		w := confirm(h, `{"pairCode": "`+ticket.Code+`", "webhookSecret": "shh"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "missing required fields", decodeJSON(t, w)["error"])
		// the code survives a rejected request
		assert.Equal(t, 1, registry.Len())
	})

	t.Run("rejects an unknown code", func(t *testing.T) {
		h, _, _ := newPairingHandler(t)

		w := confirm(h, `{
			"pairCode": "deadbeef",
			"webhookSecret": "shh",
			"outboundUrl": "https://flows.example.com/api",
			"outboundToken": "tok"
		}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid or expired pair code", decodeJSON(t, w)["error"])
	})

	t.Run("a code is single use", func(t *testing.T) {
		h, registry, _ := newPairingHandler(t)
		ticket := issue(t, registry, "")

		body := `{
			"pairCode": "` + ticket.Code + `",
			"webhookSecret": "shh",
			"outboundUrl": "https://flows.example.com/api",
			"outboundToken": "tok"
		}`
		assert.Equal(t, http.StatusOK, confirm(h, body).Code)
		assert.Equal(t, http.StatusUnauthorized, confirm(h, body).Code)
	})

	t.Run("the request may override the ticket account", func(t *testing.T) {
		h, registry, store := newPairingHandler(t)
		ticket := issue(t, registry, "default")

		w := confirm(h, `{
			"pairCode": "`+ticket.Code+`",
			"accountId": "personal",
			"webhookSecret": "shh",
			"outboundUrl": "https://flows.example.com/api",
			"outboundToken": "tok"
		}`)
		require.Equal(t, http.StatusOK, w.Code)

		doc, err := store.Load()
		require.NoError(t, err)
		ch, err := doc.Channel()
		require.NoError(t, err)
		assert.True(t, ch.ResolveAccount("personal").Configured())
	})
}
