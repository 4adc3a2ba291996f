package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/Astemirdum/foyer-service/reservation/internal/model"
)

type Enqueuer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewEnqueuer(producer sarama.SyncProducer, topic string) *Enqueuer {
	return &Enqueuer{
		producer: producer,
		topic:    topic,
	}
}

// Enqueue keys messages by directory record so updates to one record stay ordered.
func (q *Enqueuer) Enqueue(_ context.Context, msg model.DirectorySync) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	m := &sarama.ProducerMessage{
		Topic: q.topic,
		Key:   sarama.StringEncoder(fmt.Sprintf("%s:%d", msg.Target, msg.TargetID)),
		Value: sarama.ByteEncoder(data),
	}
	if _, _, err = q.producer.SendMessage(m); err != nil {
		return err
	}
	return nil
}
