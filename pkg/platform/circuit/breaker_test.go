package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(opts ...Option) (*Breaker, *clock) {
	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return New("ocr", append([]Option{WithClock(c.now)}, opts...)...), c
}

func TestNewDefaults(t *testing.T) {
	b := New("ocr")
	assert.Equal(t, "ocr", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestFailureRunOpens(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(3))

	for i := 0; i < 2; i++ {
		fallback, change := b.RecordFailure()
		require.False(t, fallback, "failure %d", i+1)
		require.False(t, change.Opened)
	}
	fallback, change := b.RecordFailure()
	assert.True(t, fallback)
	assert.True(t, change.Opened)
	assert.False(t, b.Allow())

	// already open: fallback without another transition
	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.False(t, change.Opened)
}

func TestSuccessBreaksFailureRun(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(2))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
}

func TestCooldownTrial(t *testing.T) {
	tests := []struct {
		name      string
		trialOK   bool
		wantState State
		wantAllow bool
	}{
		{name: "successful trial closes", trialOK: true, wantState: StateClosed, wantAllow: true},
		{name: "failed trial reopens", trialOK: false, wantState: StateOpen, wantAllow: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, c := newTestBreaker(WithFailureThreshold(1), WithCooldown(time.Minute))
			b.RecordFailure()

			c.advance(59 * time.Second)
			require.False(t, b.Allow())

			c.advance(time.Second)
			require.True(t, b.Allow())
			require.Equal(t, StateHalfOpen, b.State())

			if tt.trialOK {
				usePrimary, change := b.RecordSuccess()
				assert.True(t, usePrimary)
				assert.True(t, change.Closed)
			} else {
				b.RecordFailure()
			}
			assert.Equal(t, tt.wantState, b.State())
			assert.Equal(t, tt.wantAllow, b.Allow())
		})
	}
}

func TestSuccessThreshold(t *testing.T) {
	b, c := newTestBreaker(WithFailureThreshold(1), WithSuccessThreshold(2), WithCooldown(time.Second))
	b.RecordFailure()
	c.advance(time.Second)
	require.True(t, b.Allow())

	usePrimary, _ := b.RecordSuccess()
	assert.False(t, usePrimary)
	assert.True(t, b.IsOpen())

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
	assert.False(t, b.IsOpen())
}

func TestReset(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(1))
	b.RecordFailure()
	require.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestInvalidOptionsKeepDefaults(t *testing.T) {
	b, _ := newTestBreaker(WithFailureThreshold(0), WithCooldown(-time.Second))
	for i := 0; i < 4; i++ {
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
}
