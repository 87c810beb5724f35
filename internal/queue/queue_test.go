package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/eventmate/internal/model"
)

func sampleEvent(typ string) BookingEvent {
	ref := "3f1c9a52-3d0a-4c55-9a57-6d1f5f0e4b11"
	b := model.Booking{ID: 12, UserID: 5, Quantity: 2, TotalCents: 5000, PaymentRef: &ref, RefundPercent: 50}
	ev := model.Event{ID: 9, Title: "Jazz Night", StartsAt: time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)}
	return NewBookingEvent(typ, b, ev, time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))
}

func TestFormatLine(t *testing.T) {
	confirmed := FormatLine(sampleEvent(QueueBookingConfirmed))
	assert.Equal(t,
		`[2026-04-01T10:00:00Z] Booking confirmed | booking_id=12 | user_id=5 | event_id=9 | event="Jazz Night" | qty=2 | total=5000 cents | payment_ref=3f1c9a52-3d0a-4c55-9a57-6d1f5f0e4b11`+"\n",
		confirmed)

	cancelled := FormatLine(sampleEvent(QueueBookingCancelled))
	assert.Contains(t, cancelled, "Booking cancelled")
	assert.Contains(t, cancelled, "refund=50%")
	assert.True(t, strings.HasSuffix(cancelled, "\n"))
}

func TestConsumerHandleMessage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	c := NewConsumer("amqp://unused", dir)

	for _, typ := range Queues {
		body, err := json.Marshal(sampleEvent(typ))
		require.NoError(t, err)
		require.NoError(t, c.HandleMessage(body))
	}

	data, err := os.ReadFile(filepath.Join(dir, "booking.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Booking confirmed")
	assert.Contains(t, lines[1], "Booking cancelled")

	assert.Error(t, c.HandleMessage([]byte("{not json")))
	assert.Error(t, c.HandleMessage([]byte(`{"type":"booking.confirmed"}`)))
}
