package handler

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/foyer-service/reservation/internal/errs"
	"github.com/Astemirdum/foyer-service/reservation/internal/model"
)

const retryBackoff = time.Second

type applySync func(ctx context.Context, msg model.DirectorySync) error

type Consumer struct {
	syncHandler applySync
	log         *zap.Logger
	ready       chan struct{}
	readyOnce   sync.Once
}

func NewConsumer(apply applySync, log *zap.Logger) *Consumer {
	return &Consumer{
		syncHandler: apply,
		log:         log.Named("consumer"),
		ready:       make(chan struct{}),
	}
}

// Ready is closed once the first group session is set up.
func (consumer *Consumer) Ready() <-chan struct{} {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	consumer.readyOnce.Do(func() { close(consumer.ready) })
	return nil
}

func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			var msg model.DirectorySync
			if err := json.Unmarshal(message.Value, &msg); err != nil {
				consumer.log.Error("json.Unmarshal", zap.Error(err))
				session.MarkMessage(message, "")
				continue
			}

			if !consumer.handle(session, msg) {
				// session ended mid-retry; the offset stays uncommitted
				return nil
			}

			consumer.log.Debug("Message claimed:", zap.String("value", string(message.Value)), zap.Time("timestamp", message.Timestamp), zap.String("topic", message.Topic))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// handle retries msg until it is applied or fails permanently. It reports
// false when the session ends first.
func (consumer *Consumer) handle(session sarama.ConsumerGroupSession, msg model.DirectorySync) bool {
	for attempt := 1; ; attempt++ {
		err := consumer.syncHandler(session.Context(), msg)
		if err == nil {
			return true
		}
		if permanent(err) {
			consumer.log.Error("drop message", zap.Error(err),
				zap.String("target", string(msg.Target)),
				zap.String("op", string(msg.Op)),
				zap.Int64("id", msg.TargetID),
				zap.String("reservation", msg.ReservationID))
			return true
		}
		consumer.log.Warn("consumer.syncHandler", zap.Error(err), zap.Int("attempt", attempt))
		select {
		case <-time.After(retryBackoff):
		case <-session.Context().Done():
			return false
		}
	}
}

// permanent reports errors a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, errs.ErrInvalid) ||
		errors.Is(err, errs.ErrNotFound) ||
		errors.Is(err, errs.ErrRejected)
}
