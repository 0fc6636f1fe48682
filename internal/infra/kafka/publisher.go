package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"subscription-app/internal/billing"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	source          = "subscription-app"
	TypePlanChanged = "user.plan_changed"

	writeTimeout = 5 * time.Second
)

// Envelope wraps every published payload.
type Envelope struct {
	ID     string          `json:"id"`
	Source string          `json:"source"`
	Type   string          `json:"type"`
	Time   time.Time       `json:"time"`
	Data   json.RawMessage `json:"data"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// PlanChangePublisher implements billing.Notifier on a Kafka topic. Messages are keyed
// by user id so the changes of one user stay ordered within a partition.
type PlanChangePublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewPlanChangePublisher(brokers []string, topic string, logger *zap.Logger) *PlanChangePublisher {
	return &PlanChangePublisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireOne,
			WriteTimeout: writeTimeout,
		},
		logger: logger,
	}
}

func (p *PlanChangePublisher) NotifyPlanChanged(ctx context.Context, change billing.PlanChange) error {
	msg, err := planChangeMessage(change)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish plan change for user %d: %w", change.UserID, err)
	}
	p.logger.Debug("plan change published",
		zap.Uint("user_id", change.UserID),
		zap.String("plan", string(change.Plan)),
	)
	return nil
}

func (p *PlanChangePublisher) Close() error {
	return p.writer.Close()
}

func planChangeMessage(change billing.PlanChange) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal plan change: %w", err)
	}
	value, err := json.Marshal(Envelope{
		ID:     uuid.NewString(),
		Source: source,
		Type:   TypePlanChanged,
		Time:   change.At,
		Data:   data,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("marshal envelope: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(strconv.FormatUint(uint64(change.UserID), 10)),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(TypePlanChanged)},
		},
	}, nil
}
