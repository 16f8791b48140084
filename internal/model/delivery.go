package model

import (
	"encoding/json"
	"time"
)

type OutboundStatus string

const (
	OutboundStatusSent   OutboundStatus = "sent"
	OutboundStatusFailed OutboundStatus = "failed"
)

// InboundEventRecord is one accepted webhook event in the delivery log.
type InboundEventRecord struct {
	ID             string          `db:"id" json:"id"`
	EventID        string          `db:"event_id" json:"eventId"`
	AccountID      string          `db:"account_id" json:"accountId"`
	ConversationID string          `db:"conversation_id" json:"conversationId"`
	Payload        json.RawMessage `db:"payload" json:"payload"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
}

type RecordInboundParams struct {
	EventID        string
	AccountID      string
	ConversationID string
	Payload        json.RawMessage
}

// OutboundDeliveryRecord is one outbound POST attempt in the delivery log.
type OutboundDeliveryRecord struct {
	ID             string         `db:"id" json:"id"`
	AccountID      string         `db:"account_id" json:"accountId"`
	ConversationID string         `db:"conversation_id" json:"conversationId"`
	MessageID      string         `db:"message_id" json:"messageId"`
	Status         OutboundStatus `db:"status" json:"status"`
	ErrorMessage   *string        `db:"error_message" json:"errorMessage,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

type RecordOutboundParams struct {
	AccountID      string
	ConversationID string
	MessageID      string
	Status         OutboundStatus
	ErrorMessage   *string
}
