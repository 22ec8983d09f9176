package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeAdvance(t *testing.T) {
	start := time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC)
	c := NewFake(start)

	assert.Equal(t, start, c.Now())
	c.Advance(time.Hour)
	assert.Equal(t, start.Add(time.Hour), c.Now())
}

func TestFakeTickerFiresOnAdvance(t *testing.T) {
	c := NewFake(time.Date(2024, time.January, 15, 10, 30, 0, 0, time.UTC))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tk := c.NewTicker(time.Minute)
	defer tk.Stop()
	require.NoError(t, c.BlockUntilContext(ctx, 1))

	c.Advance(time.Minute)
	select {
	case <-tk.Chan():
	case <-ctx.Done():
		t.Fatal("ticker did not fire")
	}
}

func TestRealIsUTCMicroseconds(t *testing.T) {
	now := Real().Now()
	assert.Equal(t, time.UTC, now.Location())
	assert.Zero(t, now.Nanosecond()%int(time.Microsecond))
}
