package outbound

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/openclaw/dailyflows-gateway-go/internal/errors"
	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
	"github.com/openclaw/dailyflows-gateway-go/internal/model"
)

func TestSend(t *testing.T) {
	t.Run("posts JSON with bearer token", func(t *testing.T) {
		var gotAuth, gotContentType string
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotContentType = r.Header.Get("Content-Type")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.Client())
		account := gatewaycfg.ResolvedAccount{OutboundURL: server.URL, OutboundToken: "tok-1"}

		result, err := client.Send(context.Background(), account, model.OutboundRequest{
			AccountID:      "default",
			ConversationID: "c1",
			Text:           "hello",
			ReplyToID:      "m-9",
		})
		require.NoError(t, err)

		assert.Equal(t, "Bearer tok-1", gotAuth)
		assert.Equal(t, "application/json", gotContentType)
		assert.Equal(t, "hello", gotBody["text"])
		assert.Equal(t, "m-9", gotBody["replyToId"])
		assert.Equal(t, "dailyflows", result.Channel)
		assert.Equal(t, "c1", result.ConversationID)
	})

	t.Run("defaults the message id", func(t *testing.T) {
		var gotBody map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.Client())
		result, err := client.Send(context.Background(), gatewaycfg.ResolvedAccount{OutboundURL: server.URL}, model.OutboundRequest{
			AccountID:      "default",
			ConversationID: "c1",
			Text:           "hi",
		})
		require.NoError(t, err)

		id, _ := gotBody["messageId"].(string)
		assert.True(t, strings.HasPrefix(id, "oc_"), "got: %s", id)
		assert.Equal(t, id, result.MessageID)
	})

	t.Run("omits authorization header without token", func(t *testing.T) {
		var sawAuth bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, sawAuth = r.Header["Authorization"]
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := NewClient(server.Client())
		_, err := client.Send(context.Background(), gatewaycfg.ResolvedAccount{OutboundURL: server.URL}, model.OutboundRequest{
			AccountID:      "default",
			ConversationID: "c1",
		})
		require.NoError(t, err)
		assert.False(t, sawAuth)
	})

	t.Run("uses provider message id when returned", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"messageId":"prov-1"}`))
		}))
		defer server.Close()

		client := NewClient(server.Client())
		result, err := client.Send(context.Background(), gatewaycfg.ResolvedAccount{OutboundURL: server.URL}, model.OutboundRequest{
			AccountID:      "default",
			ConversationID: "c1",
		})
		require.NoError(t, err)
		assert.Equal(t, "prov-1", result.MessageID)
	})

	t.Run("non-2xx is a delivery failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(server.Client())
		_, err := client.Send(context.Background(), gatewaycfg.ResolvedAccount{OutboundURL: server.URL}, model.OutboundRequest{
			AccountID:      "default",
			ConversationID: "c1",
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDeliveryFailed, apperrors.GetCode(err))
	})

	t.Run("missing outboundUrl is rejected before any request", func(t *testing.T) {
		client := NewClient(nil)
		_, err := client.Send(context.Background(), gatewaycfg.ResolvedAccount{}, model.OutboundRequest{
			AccountID:      "ghost",
			ConversationID: "c1",
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeInvalidInput, apperrors.GetCode(err))
		assert.Contains(t, err.Error(), "ghost")
	})
}
