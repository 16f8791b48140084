package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/openclaw/dailyflows-gateway-go/internal/model"
)

// DeliveryLogRepository records accepted inbound events and outbound delivery
// attempts. The log is best-effort bookkeeping; the adapter works without it.
type DeliveryLogRepository interface {
	RecordInbound(ctx context.Context, params model.RecordInboundParams) error
	RecordOutbound(ctx context.Context, params model.RecordOutboundParams) error
	FindInboundByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.InboundEventRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type deliveryLogRepo struct {
	db *sqlx.DB
}

func NewDeliveryLogRepository(db *sqlx.DB) DeliveryLogRepository {
	return &deliveryLogRepo{db: db}
}

func (r *deliveryLogRepo) RecordInbound(ctx context.Context, params model.RecordInboundParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO inbound_events (event_id, account_id, conversation_id, payload)
		VALUES ($1, $2, $3, $4)
	`, params.EventID, params.AccountID, params.ConversationID, params.Payload)
	return err
}

func (r *deliveryLogRepo) RecordOutbound(ctx context.Context, params model.RecordOutboundParams) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO outbound_deliveries (account_id, conversation_id, message_id, status, error_message)
		VALUES ($1, $2, $3, $4, $5)
	`, params.AccountID, params.ConversationID, params.MessageID, params.Status, params.ErrorMessage)
	return err
}

func (r *deliveryLogRepo) FindInboundByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.InboundEventRecord, error) {
	var events []model.InboundEventRecord
	err := r.db.SelectContext(ctx, &events, `
		SELECT * FROM inbound_events
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	return events, err
}

func (r *deliveryLogRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var total int64
	res, err := r.db.ExecContext(ctx, `DELETE FROM inbound_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	res, err = r.db.ExecContext(ctx, `DELETE FROM outbound_deliveries WHERE created_at < $1`, cutoff)
	if err != nil {
		return total, err
	}
	if n, err := res.RowsAffected(); err == nil {
		total += n
	}
	return total, nil
}

// NoopDeliveryLog satisfies DeliveryLogRepository when no database is
// configured.
type NoopDeliveryLog struct{}

func (NoopDeliveryLog) RecordInbound(context.Context, model.RecordInboundParams) error   { return nil }
func (NoopDeliveryLog) RecordOutbound(context.Context, model.RecordOutboundParams) error { return nil }
func (NoopDeliveryLog) FindInboundByAccountID(context.Context, string, int, int) ([]model.InboundEventRecord, error) {
	return nil, nil
}
func (NoopDeliveryLog) DeleteOlderThan(context.Context, time.Time) (int64, error) { return 0, nil }
