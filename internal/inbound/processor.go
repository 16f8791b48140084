// Package inbound turns validated webhook payloads into the gateway's
// inbound conversation context and feeds agent replies back out.
package inbound

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/dailyflows-gateway-go/internal/gateway"
	"github.com/openclaw/dailyflows-gateway-go/internal/model"
)

const (
	channelID    = "dailyflows"
	channelLabel = "Dailyflows"

	// envelopeHeaderGap suppresses the envelope header for quick follow-up
	// messages in the same session.
	envelopeHeaderGap = 5 * time.Minute
)

// Sender delivers one outbound reply.
type Sender interface {
	Send(ctx context.Context, req model.OutboundRequest) (model.OutboundResult, error)
}

type Processor struct {
	router     gateway.Router
	sessions   gateway.Sessions
	dispatcher gateway.ReplyDispatcher
	sender     Sender
	now        func() time.Time
}

func NewProcessor(router gateway.Router, sessions gateway.Sessions, dispatcher gateway.ReplyDispatcher, sender Sender) *Processor {
	return &Processor{
		router:     router,
		sessions:   sessions,
		dispatcher: dispatcher,
		sender:     sender,
		now:        time.Now,
	}
}

// Process normalizes one accepted webhook payload, records the session and
// dispatches it for replies. Reply delivery failures are logged, never
// propagated: the webhook has already been acknowledged.
func (p *Processor) Process(ctx context.Context, payload model.WebhookPayload) error {
	msg := payload.Message
	if msg == nil {
		return nil
	}

	accountID := payload.AccountID
	if accountID == "" {
		accountID = "default"
	}
	chatType := msg.ChatType
	if chatType == "" {
		chatType = model.ChatDirect
	}
	conversationID := msg.ConversationID
	if conversationID == "" {
		conversationID = msg.SenderID
	}

	bodyText := formatBody(msg)
	if strings.TrimSpace(bodyText) == "" {
		log.Debug().Str("eventId", payload.ID).Msg("dropping inbound event with empty body")
		return nil
	}

	peer := gateway.Peer{Kind: gateway.PeerDM, ID: conversationID}
	if chatType == model.ChatGroup {
		peer.Kind = gateway.PeerGroup
	}
	route := p.router.ResolveRoute(channelID, accountID, peer)

	fromLabel := msg.SenderName
	if chatType == model.ChatGroup {
		fromLabel = "room:" + firstNonEmpty(msg.ConversationName, conversationID)
	} else if fromLabel == "" {
		fromLabel = "user:" + msg.SenderID
	}

	occurredAt := payload.OccurredAt
	if occurredAt == 0 {
		occurredAt = p.now().UnixMilli()
	}

	prev, hasPrev := p.sessions.ReadUpdatedAt(ctx, route.SessionKey)
	body := formatEnvelope(fromLabel, occurredAt, prev, hasPrev, bodyText)

	from := channelID + ":" + msg.SenderID
	if chatType == model.ChatGroup {
		from = channelID + ":room:" + conversationID
	}
	groupSubject := ""
	if chatType == model.ChatGroup {
		groupSubject = firstNonEmpty(msg.ConversationName, conversationID)
	}

	inboundCtx := model.InboundContext{
		Body:              body,
		RawBody:           bodyText,
		CommandBody:       bodyText,
		From:              from,
		To:                channelID + ":" + conversationID,
		SessionKey:        route.SessionKey,
		AccountID:         route.AccountID,
		ChatType:          chatType,
		ConversationLabel: fromLabel,
		SenderName:        msg.SenderName,
		SenderID:          msg.SenderID,
		GroupSubject:      groupSubject,
		Provider:          channelID,
		Surface:           channelID,
		MessageSid:        msg.MessageID,
		Timestamp:         occurredAt,
		OriginatingTo:     channelID + ":" + conversationID,
	}

	if err := p.sessions.RecordInbound(ctx, route.SessionKey, inboundCtx); err != nil {
		log.Error().Err(err).Str("sessionKey", route.SessionKey).Msg("failed updating session meta")
	}

	deliver := func(ctx context.Context, reply gateway.Reply) error {
		_, err := p.sender.Send(ctx, model.OutboundRequest{
			AccountID:      accountID,
			ConversationID: conversationID,
			Text:           reply.Text,
			ReplyToID:      msg.MessageID,
			Attachments:    replyAttachments(reply),
		})
		return err
	}

	if err := p.dispatcher.Dispatch(ctx, inboundCtx, deliver); err != nil {
		log.Error().Err(err).Str("sessionKey", route.SessionKey).Msg("reply dispatch failed")
	}
	return nil
}

// formatBody appends attachment lines to the message text.
func formatBody(msg *model.InboundMessage) string {
	text := strings.TrimSpace(msg.Text)
	if len(msg.Attachments) == 0 {
		return text
	}
	lines := make([]string, 0, len(msg.Attachments))
	for _, item := range msg.Attachments {
		lines = append(lines, fmt.Sprintf("Attachment: %s (%s)", item.URL, item.Type))
	}
	if text == "" {
		return strings.Join(lines, "\n")
	}
	return text + "\n\n" + strings.Join(lines, "\n")
}

// formatEnvelope prefixes the body with a channel header unless the previous
// message in this session was recent enough to keep the thread running.
func formatEnvelope(from string, occurredAtMs int64, prev time.Time, hasPrev bool, body string) string {
	occurred := time.UnixMilli(occurredAtMs)
	if hasPrev && occurred.Sub(prev) < envelopeHeaderGap {
		return body
	}
	return fmt.Sprintf("[%s] %s · %s\n%s", channelLabel, from, occurred.UTC().Format(time.RFC3339), body)
}

func replyAttachments(reply gateway.Reply) []model.Attachment {
	if len(reply.MediaURLs) > 0 {
		attachments := make([]model.Attachment, 0, len(reply.MediaURLs))
		for _, url := range reply.MediaURLs {
			attachments = append(attachments, model.Attachment{Type: model.AttachmentFile, URL: url})
		}
		return attachments
	}
	if reply.MediaURL != "" {
		return []model.Attachment{{Type: model.AttachmentFile, URL: reply.MediaURL}}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
