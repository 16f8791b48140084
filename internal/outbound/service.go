package outbound

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/dailyflows-gateway-go/internal/gatewaycfg"
	"github.com/openclaw/dailyflows-gateway-go/internal/model"
	"github.com/openclaw/dailyflows-gateway-go/internal/repository"
)

// Service resolves account credentials from the live config document, sends
// through the Client and records the attempt in the delivery log.
type Service struct {
	store       *gatewaycfg.Store
	client      *Client
	deliveryLog repository.DeliveryLogRepository
}

func NewService(store *gatewaycfg.Store, client *Client, deliveryLog repository.DeliveryLogRepository) *Service {
	return &Service{
		store:       store,
		client:      client,
		deliveryLog: deliveryLog,
	}
}

func (s *Service) Send(ctx context.Context, req model.OutboundRequest) (model.OutboundResult, error) {
	doc, err := s.store.Load()
	if err != nil {
		return model.OutboundResult{}, err
	}
	ch, err := doc.Channel()
	if err != nil {
		return model.OutboundResult{}, err
	}
	account := ch.ResolveAccount(req.AccountID)

	result, sendErr := s.client.Send(ctx, account, req)

	status := model.OutboundStatusSent
	var errMsg *string
	messageID := result.MessageID
	if sendErr != nil {
		status = model.OutboundStatusFailed
		msg := sendErr.Error()
		errMsg = &msg
		messageID = req.MessageID
	}
	if err := s.deliveryLog.RecordOutbound(ctx, model.RecordOutboundParams{
		AccountID:      account.AccountID,
		ConversationID: req.ConversationID,
		MessageID:      messageID,
		Status:         status,
		ErrorMessage:   errMsg,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to record outbound delivery")
	}

	return result, sendErr
}
