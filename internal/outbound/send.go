// Package outbound delivers replies to the Dailyflows HTTP endpoint an
// account was paired with.
package outbound

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/openclaw/dailyflows-gateway-go/internal/errors"
	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
	"github.com/openclaw/dailyflows-gateway-go/internal/model"
)

const ChannelName = "dailyflows"

type Client struct {
	http *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{http: httpClient}
}

type sendResult struct {
	MessageID string `json:"messageId"`
}

// Send issues one POST to the account's outboundUrl. The message id defaults
// to a fresh oc_-prefixed UUID so retries by callers stay distinguishable.
func (c *Client) Send(ctx context.Context, account gatewaycfg.ResolvedAccount, req model.OutboundRequest) (model.OutboundResult, error) {
	if account.OutboundURL == "" {
		return model.OutboundResult{}, apperrors.InvalidInput(
			"outboundUrl",
			fmt.Sprintf("missing for account %q; set channels.dailyflows.accounts.%s.outboundUrl", req.AccountID, req.AccountID),
		)
	}

	if req.MessageID == "" {
		req.MessageID = "oc_" + uuid.NewString()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return model.OutboundResult{}, fmt.Errorf("marshal outbound payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, account.OutboundURL, bytes.NewReader(body))
	if err != nil {
		return model.OutboundResult{}, fmt.Errorf("build outbound request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if account.OutboundToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+account.OutboundToken)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return model.OutboundResult{}, apperrors.DeliveryFailed(err.Error()).WithCause(err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return model.OutboundResult{}, apperrors.DeliveryFailed(fmt.Sprintf("%d %s", res.StatusCode, http.StatusText(res.StatusCode)))
	}

	messageID := req.MessageID
	if parsed := parseSendResult(res.Body); parsed.MessageID != "" {
		messageID = parsed.MessageID
	}

	log.Debug().
		Str("accountId", req.AccountID).
		Str("conversationId", req.ConversationID).
		Str("messageId", messageID).
		Msg("outbound message delivered")

	return model.OutboundResult{
		Channel:        ChannelName,
		MessageID:      messageID,
		ConversationID: req.ConversationID,
	}, nil
}

// parseSendResult reads the provider response leniently; a blank or
// non-JSON body is not an error.
func parseSendResult(r io.Reader) sendResult {
	data, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return sendResult{}
	}
	var result sendResult
	if err := json.Unmarshal(data, &result); err != nil {
		return sendResult{}
	}
	return result
}
