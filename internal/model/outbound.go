package model

// OutboundRequest maps to exactly one POST against the account's outboundUrl.
type OutboundRequest struct {
	AccountID      string       `json:"accountId"`
	ConversationID string       `json:"conversationId"`
	MessageID      string       `json:"messageId,omitempty"`
	Text           string       `json:"text,omitempty"`
	ReplyToID      string       `json:"replyToId,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

type OutboundResult struct {
	Channel        string `json:"channel"`
	MessageID      string `json:"messageId"`
	ConversationID string `json:"conversationId"`
}
