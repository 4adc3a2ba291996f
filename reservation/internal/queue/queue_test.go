package queue_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/foyer-service/reservation/internal/model"
	"github.com/Astemirdum/foyer-service/reservation/internal/queue"
)

func TestEnqueuer_Enqueue(t *testing.T) {
	t.Parallel()
	msg := model.DirectorySync{
		Target:        model.SyncTargetRoom,
		Op:            model.SyncOpAttach,
		TargetID:      10,
		ReservationID: "c0ffee",
	}

	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got model.DirectorySync
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		require.Equal(t, msg, got)
		return nil
	})

	q := queue.NewEnqueuer(producer, "directory-sync")
	require.NoError(t, q.Enqueue(context.Background(), msg))
	require.NoError(t, producer.Close())
}

func TestEnqueuer_EnqueueFails(t *testing.T) {
	t.Parallel()
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	q := queue.NewEnqueuer(producer, "directory-sync")
	err := q.Enqueue(context.Background(), model.DirectorySync{Target: model.SyncTargetStudent, TargetID: 1})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, producer.Close())
}
