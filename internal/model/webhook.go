package model

// EventMessageReceived is the only inbound event type Dailyflows sends today.
const EventMessageReceived = "message.received"

type AttachmentType string

const (
	AttachmentImage AttachmentType = "image"
	AttachmentFile  AttachmentType = "file"
	AttachmentAudio AttachmentType = "audio"
)

type Attachment struct {
	Type       AttachmentType `json:"type"`
	URL        string         `json:"url"`
	Name       string         `json:"name,omitempty"`
	Mime       string         `json:"mime,omitempty"`
	Size       int64          `json:"size,omitempty"`
	DurationMs int64          `json:"durationMs,omitempty"`
}

type ChatType string

const (
	ChatDirect ChatType = "direct"
	ChatGroup  ChatType = "group"
)

type InboundMessage struct {
	MessageID        string       `json:"messageId,omitempty"`
	ChatType         ChatType     `json:"chatType,omitempty"`
	SenderID         string       `json:"senderId"`
	SenderName       string       `json:"senderName,omitempty"`
	ConversationID   string       `json:"conversationId"`
	ConversationName string       `json:"conversationName,omitempty"`
	Text             string       `json:"text,omitempty"`
	Attachments      []Attachment `json:"attachments,omitempty"`
}

// WebhookPayload is a transient inbound event; validated, transformed and
// discarded.
type WebhookPayload struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt int64           `json:"occurredAt,omitempty"`
	AccountID  string          `json:"accountId,omitempty"`
	Message    *InboundMessage `json:"message"`
}

// Valid reports whether the payload has the minimal shape the webhook
// authenticator admits: non-empty id, type and a message object.
func (p *WebhookPayload) Valid() bool {
	return p != nil && p.ID != "" && p.Type != "" && p.Message != nil
}
