package audit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"zkid/internal/audit"
	auditstore "zkid/internal/audit/store"
	"zkid/internal/platform/logger"
	id "zkid/pkg/domain"
	"zkid/pkg/requestcontext"
)

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
	closed bool
}

func (s *recordingSink) Publish(_ context.Context, e audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) snapshot() []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Event{}, s.events...)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("db down") }
func (failingStore) ListByUser(context.Context, id.UserID) ([]audit.Event, error) {
	return nil, nil
}

type PublisherSuite struct {
	suite.Suite
	store  *auditstore.InMemoryStore
	userID id.UserID
	ctx    context.Context
	now    time.Time
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.store = auditstore.NewInMemoryStore()
	s.userID = id.UserID(uuid.New())
	s.now = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	ctx = requestcontext.WithTime(ctx, s.now)
	s.ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9",
		"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
}

func (s *PublisherSuite) TestEmitEnrichesFromContext() {
	p := audit.NewPublisher(s.store, audit.WithLogger(logger.Discard()))
	p.Emit(s.ctx, audit.Event{UserID: s.userID, Action: audit.ActionDocumentRejected, Reason: "not citizenship"})

	events, err := s.store.ListByUser(s.ctx, s.userID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	e := events[0]
	s.NotEqual(id.EventID{}, e.ID)
	s.Equal("req-42", e.RequestID)
	s.Equal("203.0.113.9", e.ClientIP)
	s.Equal(s.now, e.Timestamp)
	s.Contains(e.Device, "Firefox")
}

func (s *PublisherSuite) TestStoreFailureDoesNotPanic() {
	p := audit.NewPublisher(failingStore{}, audit.WithLogger(logger.Discard()))
	s.NotPanics(func() {
		p.Emit(s.ctx, audit.Event{UserID: s.userID, Action: audit.ActionVoteCast})
	})
}

func (s *PublisherSuite) TestNilPublisherIsNoop() {
	var p *audit.Publisher
	s.NotPanics(func() { p.Emit(s.ctx, audit.Event{Action: audit.ActionVoteCast}) })
}

func (s *PublisherSuite) TestSinkReceivesEventsAndFlushesOnShutdown() {
	sink := &recordingSink{}
	p := audit.NewPublisher(s.store, audit.WithSink(sink, 8), audit.WithLogger(logger.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	p.Emit(s.ctx, audit.Event{UserID: s.userID, Action: audit.ActionKYCCompleted})
	p.Emit(s.ctx, audit.Event{UserID: s.userID, Action: audit.ActionVoteCast})

	s.Eventually(func() bool { return len(sink.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	s.Require().NoError(<-done)
	s.True(sink.closed)
}

func TestSinkBufferFullDropsBrokerCopyOnly(t *testing.T) {
	store := auditstore.NewInMemoryStore()
	sink := &recordingSink{}
	// Run is never started, so the one-slot buffer fills immediately.
	p := audit.NewPublisher(store, audit.WithSink(sink, 1), audit.WithLogger(logger.Discard()))
	userID := id.UserID(uuid.New())

	for range 3 {
		p.Emit(context.Background(), audit.Event{UserID: userID, Action: audit.ActionVoteRejected})
	}

	events, err := store.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestSinkErrorsAreSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker unavailable")}
	p := audit.NewPublisher(auditstore.NewInMemoryStore(), audit.WithSink(sink, 4), audit.WithLogger(logger.Discard()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	p.Emit(context.Background(), audit.Event{Action: audit.ActionPollCreated})
	cancel()
	require.NoError(t, <-done)
}

func TestDeviceLabel(t *testing.T) {
	assert.Equal(t, "Unknown Device", audit.DeviceLabel(""))

	chrome := audit.DeviceLabel("Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.Contains(t, chrome, "Chrome")
	assert.Contains(t, chrome, " on ")

	iphone := audit.DeviceLabel("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.Contains(t, iphone, "iPhone")

	odd := audit.DeviceLabel("Unknown/1.0")
	assert.Contains(t, odd, " on ")
}
