package model

// InboundContext is the normalized inbound event handed to the host runtime
// collaborators after webhook validation.
type InboundContext struct {
	Body              string
	RawBody           string
	CommandBody       string
	From              string
	To                string
	SessionKey        string
	AccountID         string
	ChatType          ChatType
	ConversationLabel string
	SenderName        string
	SenderID          string
	GroupSubject      string
	Provider          string
	Surface           string
	MessageSid        string
	Timestamp         int64
	OriginatingTo     string
}
