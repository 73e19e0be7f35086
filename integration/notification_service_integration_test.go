package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/iyhunko/gas-app/internal/auth"
	"github.com/iyhunko/gas-app/internal/geocode"
	"github.com/iyhunko/gas-app/internal/model"
	reposql "github.com/iyhunko/gas-app/internal/repository/sql"
	"github.com/iyhunko/gas-app/internal/service"
	sqspkg "github.com/iyhunko/gas-app/internal/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryQueue is an in-process stand-in for an SQS queue, usable by both the publisher and the consumer.
type memoryQueue struct {
	mu       sync.Mutex
	messages []types.Message
	deleted  []string
	seq      int
}

func (q *memoryQueue) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	q.messages = append(q.messages, types.Message{
		Body:              params.MessageBody,
		ReceiptHandle:     aws.String(fmt.Sprintf("receipt-%d", q.seq)),
		MessageAttributes: params.MessageAttributes,
	})
	return &sqs.SendMessageOutput{MessageId: aws.String(fmt.Sprintf("msg-%d", q.seq))}, nil
}

func (q *memoryQueue) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	q.mu.Lock()
	batch := q.messages
	q.messages = nil
	q.mu.Unlock()

	if len(batch) == 0 {
		select {
		case <-ctx.Done():
		case <-time.After(10 * time.Millisecond):
		}
	}
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (q *memoryQueue) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.deleted = append(q.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (q *memoryQueue) snapshot() ([]types.Message, []string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]types.Message(nil), q.messages...), append([]string(nil), q.deleted...)
}

func TestNotificationService_Integration(t *testing.T) {
	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	const queueURL = "https://sqs.us-east-1.amazonaws.com/123456789/test-queue"

	t.Run("outbox relays a committed producer event to the consumer", func(t *testing.T) {
		testDB.TruncateTables(t)
		ctx := context.Background()
		queue := &memoryQueue{}

		txRepo := reposql.NewTransactionalRepository(testDB.DB)
		repos := txRepo.Repositories()
		producers := service.NewProducerService(repos, txRepo, auth.NewHasher(4), geocode.Nop{}, nil)

		// given
		producer, err := producers.Create(ctx, model.ProducerChanges{
			Name:                 strPtr("Gas Works"),
			Address:              strPtr("1 Main Rd"),
			Email:                strPtr("relay@example.com"),
			Password:             strPtr("secret1"),
			PasswordConfirmation: strPtr("secret1"),
		})
		require.NoError(t, err)

		// when
		worker := service.NewOutboxWorker(repos.Events, sqspkg.NewPublisher(queue, queueURL), time.Second, "relay-test")
		processed, err := worker.ProcessPending(ctx)
		require.NoError(t, err)

		// then
		assert.Equal(t, 1, processed)
		pending, _ := queue.snapshot()
		require.Len(t, pending, 1)
		assert.Equal(t, model.EventProducerCreated, aws.ToString(pending[0].MessageAttributes["event_type"].StringValue))

		var msg sqspkg.Message
		require.NoError(t, json.Unmarshal([]byte(aws.ToString(pending[0].Body)), &msg))
		assert.Equal(t, producer.ID.String(), msg.ResourceID)
		assert.Equal(t, "Gas Works", msg.Name)

		consumeCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		err = sqspkg.NewConsumer(queue, queueURL).Start(consumeCtx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		_, deleted := queue.snapshot()
		assert.Equal(t, []string{"receipt-1"}, deleted)
	})

	t.Run("consumer keeps messages it cannot read", func(t *testing.T) {
		queue := &memoryQueue{}
		queue.messages = []types.Message{{Body: aws.String("invalid json message"), ReceiptHandle: aws.String("bad")}}

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		err := sqspkg.NewConsumer(queue, queueURL).Start(ctx)

		assert.Error(t, err)
		_, deleted := queue.snapshot()
		assert.Empty(t, deleted)
	})
}

func strPtr(s string) *string {
	return &s
}
