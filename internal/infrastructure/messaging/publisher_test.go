package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshelf/internal/domain/book"
	"github.com/xiebiao/bookshelf/internal/domain/relation"
	"github.com/xiebiao/bookshelf/internal/infrastructure/config"
	"github.com/xiebiao/bookshelf/pkg/circuitbreaker"
)

type published struct {
	key   string
	event interface{}
}

type fakeBroker struct {
	mu       sync.Mutex
	err      error
	messages []published
	calls    int
	closed   bool
}

func (b *fakeBroker) Publish(_ context.Context, key string, msg interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.err != nil {
		return b.err
	}
	b.messages = append(b.messages, published{key: key, event: msg})
	return nil
}

func (b *fakeBroker) Close() error {
	b.closed = true
	return nil
}

func newBreaker(name string) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.NewCircuitBreaker(name, circuitbreaker.Config{
		Timeout:     time.Minute,
		ReadyToTrip: circuitbreaker.ConsecutiveFailures(2),
	})
}

func TestPublisher(t *testing.T) {
	broker := &fakeBroker{}
	p := NewPublisher(broker, newBreaker(t.Name()))

	rate := relation.RateGood
	rel := &relation.Relation{UserID: 1, BookID: 2, Like: true, Rate: &rate}
	require.NoError(t, p.Publish(context.Background(), RoutingRelationUpdated, NewRelationUpdated(rel, true)))

	require.Len(t, broker.messages, 1)
	assert.Equal(t, RoutingRelationUpdated, broker.messages[0].key)
	ev := broker.messages[0].event.(RelationUpdated)
	assert.Equal(t, uint(2), ev.BookID)
	assert.Equal(t, 3, *ev.Rate)
	assert.True(t, ev.Created)

	require.NoError(t, p.Close())
	assert.True(t, broker.closed)
}

func TestPublisher_BreakerOpens(t *testing.T) {
	broker := &fakeBroker{err: errors.New("connection refused")}
	p := NewPublisher(broker, newBreaker(t.Name()))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		assert.Error(t, p.Publish(ctx, RoutingBookDeleted, BookDeleted{BookID: 1}))
	}

	err := p.Publish(ctx, RoutingBookDeleted, BookDeleted{BookID: 1})
	assert.ErrorIs(t, err, circuitbreaker.ErrOpenState)
	assert.Equal(t, 2, broker.calls, "熔断打开后不再调用Broker")
}

func TestPublisher_IgnoresCallerCancel(t *testing.T) {
	broker := &fakeBroker{}
	p := NewPublisher(broker, newBreaker(t.Name()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Publish(ctx, RoutingBookDeleted, BookDeleted{BookID: 1}))
	assert.Len(t, broker.messages, 1)
}

func TestNewEventPublisher_Disabled(t *testing.T) {
	p, cleanup, err := NewEventPublisher(&config.Config{})
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, NoopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), RoutingBookDeleted, nil))
}

func TestNewBookRatingChanged(t *testing.T) {
	b := &book.Book{ID: 3, Rating: decimal.NewNullDecimal(decimal.RequireFromString("4.5"))}
	ev := NewBookRatingChanged(b)
	require.NotNil(t, ev.Rating)
	assert.Equal(t, "4.50", *ev.Rating)

	ev = NewBookRatingChanged(&book.Book{ID: 3})
	assert.Nil(t, ev.Rating)
}

func TestPublishAfterCommit(t *testing.T) {
	broker := &fakeBroker{err: errors.New("boom")}
	p := NewPublisher(broker, newBreaker(t.Name()))

	assert.NotPanics(t, func() {
		PublishAfterCommit(context.Background(), p, RoutingBookDeleted, BookDeleted{BookID: 1})
		PublishAfterCommit(context.Background(), nil, RoutingBookDeleted, BookDeleted{BookID: 1})
	})
	assert.Equal(t, 1, broker.calls)
}
