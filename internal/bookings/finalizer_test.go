package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsalon/salon-booking-bot/internal/session"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

type stubStore struct {
	last      *Booking
	nextID    int64
	err       error
	attached  map[int64]string
	getResult *Booking
}

func (s *stubStore) Insert(ctx context.Context, b Booking) (int64, error) {
	s.last = &b
	return s.nextID, s.err
}

func (s *stubStore) AttachScreenshot(ctx context.Context, id int64, ref string) error {
	if s.err != nil {
		return s.err
	}
	if s.attached == nil {
		s.attached = map[int64]string{}
	}
	s.attached[id] = ref
	return nil
}

func (s *stubStore) Get(ctx context.Context, id int64) (*Booking, error) {
	return s.getResult, nil
}

type countingObserver struct {
	statuses []string
}

func (c *countingObserver) ObserveBooking(status string) {
	c.statuses = append(c.statuses, status)
}

func TestFinalizeFreezesDraftFields(t *testing.T) {
	store := &stubStore{nextID: 11}
	f := NewFinalizer(store, logging.Default())
	f.now = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }

	draft := session.Draft{
		Name:            "Asha",
		Services:        []string{"7"},
		Total:           1500,
		AdvanceRequired: 750,
		Date:            "2026-09-01",
		Time:            "02:00 PM",
	}
	id, err := f.Finalize(context.Background(), "919876543210", draft, StatusPaymentPending)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	require.NotNil(t, store.last)
	assert.Equal(t, "919876543210", store.last.Identity)
	assert.Equal(t, []string{"7"}, store.last.Services)
	assert.Equal(t, 1500, store.last.Total)
	assert.Equal(t, 750, store.last.AdvanceRequired)
	assert.Equal(t, StatusPaymentPending, store.last.Status)
	assert.Equal(t, time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC), store.last.CreatedAt)
}

func TestFinalizePropagatesStorageError(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	f := NewFinalizer(store, logging.Default())

	_, err := f.Finalize(context.Background(), "a", session.Draft{}, StatusConfirmed)
	assert.Error(t, err)
}

func TestFinalizeNotifiesObserver(t *testing.T) {
	store := &stubStore{nextID: 1}
	obs := &countingObserver{}
	f := NewFinalizer(store, logging.Default())
	f.SetObserver(obs)

	_, err := f.Finalize(context.Background(), "a", session.Draft{}, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, []string{"confirmed"}, obs.statuses)
}

func TestAttachScreenshotFiresPaymentHook(t *testing.T) {
	store := &stubStore{
		getResult: &Booking{ID: 5, Status: StatusPaymentPending, Screenshot: "uploads/x.jpg"},
	}
	f := NewFinalizer(store, logging.Default())

	var hooked *Booking
	f.OnPaymentSubmitted(func(ctx context.Context, b Booking) { hooked = &b })

	require.NoError(t, f.AttachScreenshot(context.Background(), 5, "uploads/x.jpg"))
	assert.Equal(t, "uploads/x.jpg", store.attached[5])
	require.NotNil(t, hooked)
	assert.Equal(t, int64(5), hooked.ID)
}

func TestAttachScreenshotSkipsHookForOtherStatuses(t *testing.T) {
	store := &stubStore{
		getResult: &Booking{ID: 6, Status: StatusConfirmed},
	}
	f := NewFinalizer(store, logging.Default())

	called := false
	f.OnPaymentSubmitted(func(ctx context.Context, b Booking) { called = true })

	require.NoError(t, f.AttachScreenshot(context.Background(), 6, "ref"))
	assert.False(t, called)
}
