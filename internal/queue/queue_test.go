package queue

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestEncodeIsPersistentJSON(t *testing.T) {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	pub, err := encode(BookingEvent{ReservationID: "r-1", Rooms: 2}, at)
	require.NoError(t, err)
	require.Equal(t, "application/json", pub.ContentType)
	require.Equal(t, uint8(amqp.Persistent), pub.DeliveryMode)
	require.Equal(t, at, pub.Timestamp)

	var back BookingEvent
	require.NoError(t, json.Unmarshal(pub.Body, &back))
	require.Equal(t, "r-1", back.ReservationID)
	require.Equal(t, 2, back.Rooms)
}

func TestConsumerHandleWritesLines(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsumer("amqp://unused", &buf, nil)

	booking, err := json.Marshal(BookingEvent{
		ReservationID: "r-1", ExternalID: "PMS-9", OwnerID: 7, HotelCode: "H1", RoomType: "DBL",
		CheckIn: "2025-06-01", CheckOut: "2025-06-03", Rooms: 1, ContactEmail: "a@b.c",
		OccurredAt: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, c.Handle(QueueBookingConfirmed, booking))

	payment, err := json.Marshal(PaymentEvent{
		IntentID: 3, DraftID: 4, OwnerID: 7, Token: "USDT", Chain: "TRON",
		Amount: decimal.RequireFromString("100.01"), TxHash: "0xabc", SenderWallet: "T1",
	})
	require.NoError(t, err)
	require.NoError(t, c.Handle(QueuePaymentReceived, payment))

	out := buf.String()
	require.Contains(t, out, "Reservation confirmed | reservation_id=r-1 | external_id=PMS-9")
	require.Contains(t, out, "stay=2025-06-01..2025-06-03")
	require.Contains(t, out, "amount=100.01 USDT@TRON | tx=0xabc")
}

func TestConsumerHandleRejectsBadInput(t *testing.T) {
	c := NewConsumer("amqp://unused", &bytes.Buffer{}, nil)
	require.Error(t, c.Handle(QueueBookingCancelled, []byte("{")))
	require.Error(t, c.Handle("unknown.queue", []byte("{}")))
}
