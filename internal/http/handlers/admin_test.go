package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsalon/salon-booking-bot/internal/bookings"
	"github.com/smartsalon/salon-booking-bot/internal/catalog"
	"github.com/smartsalon/salon-booking-bot/internal/whatsapp"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

type fakeAdminStore struct {
	byID     map[int64]*bookings.Booking
	listed   []bookings.Booking
	updated  map[int64]bookings.Status
	notes    map[int64]string
	deleted  []int64
	stats    bookings.Stats
	listWant bookings.Filter
}

func (f *fakeAdminStore) Get(ctx context.Context, id int64) (*bookings.Booking, error) {
	return f.byID[id], nil
}

func (f *fakeAdminStore) List(ctx context.Context, filter bookings.Filter) ([]bookings.Booking, error) {
	f.listWant = filter
	return f.listed, nil
}

func (f *fakeAdminStore) UpdateStatus(ctx context.Context, id int64, status bookings.Status, notes string) error {
	if f.updated == nil {
		f.updated = map[int64]bookings.Status{}
	}
	if f.notes == nil {
		f.notes = map[int64]string{}
	}
	f.updated[id] = status
	f.notes[id] = notes
	return nil
}

func (f *fakeAdminStore) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAdminStore) GetStats(ctx context.Context) (bookings.Stats, error) {
	return f.stats, nil
}

type fakeTexter struct {
	to   []string
	text []string
}

func (f *fakeTexter) SendText(ctx context.Context, to, text string) (*whatsapp.SendResponse, error) {
	f.to = append(f.to, to)
	f.text = append(f.text, text)
	return &whatsapp.SendResponse{}, nil
}

func adminRouter(h *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Post("/admin/login", h.Login)
	r.Get("/admin/bookings", h.ListBookings)
	r.Get("/admin/bookings/export", h.ExportCSV)
	r.Get("/admin/bookings/{id}", h.GetBooking)
	r.Post("/admin/bookings/{id}/approve", h.Approve)
	r.Post("/admin/bookings/{id}/reject", h.Reject)
	r.Delete("/admin/bookings/{id}", h.DeleteBooking)
	r.Get("/admin/stats", h.Stats)
	return r
}

func pendingBooking() *bookings.Booking {
	return &bookings.Booking{
		ID:              3,
		Identity:        "919876543210",
		Name:            "Asha",
		Services:        []string{"7"},
		Date:            "2026-08-31",
		Time:            "10:00 AM",
		Total:           1500,
		AdvanceRequired: 750,
		Status:          bookings.StatusPaymentPending,
		CreatedAt:       time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
}

func newAdminHandler(store *fakeAdminStore, texter CustomerTexter) *AdminHandler {
	return NewAdminHandler(store, texter, catalog.Default(),
		"hunter2", "jwt_secret", time.Hour, logging.Default())
}

func TestLoginIssuesToken(t *testing.T) {
	h := newAdminHandler(&fakeAdminStore{}, nil)
	router := adminRouter(h)

	body := bytes.NewBufferString(`{"password":"hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.ExpiresAt)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newAdminHandler(&fakeAdminStore{}, nil)
	router := adminRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewBufferString(`{"password":"wrong"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListBookingsAppliesFilters(t *testing.T) {
	store := &fakeAdminStore{listed: []bookings.Booking{*pendingBooking()}}
	router := adminRouter(newAdminHandler(store, nil))

	req := httptest.NewRequest(http.MethodGet,
		"/admin/bookings?status=payment_pending&identity=919876543210&limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bookings.StatusPaymentPending, store.listWant.Status)
	assert.Equal(t, "919876543210", store.listWant.Identity)
	assert.Equal(t, 10, store.listWant.Limit)

	var resp struct {
		Bookings []bookingResponse `json:"bookings"`
		Count    int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, []string{"Spa Package"}, resp.Bookings[0].ServiceNames)
}

func TestGetBookingNotFound(t *testing.T) {
	router := adminRouter(newAdminHandler(&fakeAdminStore{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/admin/bookings/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApproveConfirmsAndNotifiesCustomer(t *testing.T) {
	store := &fakeAdminStore{byID: map[int64]*bookings.Booking{3: pendingBooking()}}
	texter := &fakeTexter{}
	router := adminRouter(newAdminHandler(store, texter))

	req := httptest.NewRequest(http.MethodPost, "/admin/bookings/3/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bookings.StatusConfirmed, store.updated[3])

	require.Len(t, texter.to, 1)
	assert.Equal(t, "919876543210", texter.to[0])
	assert.Contains(t, texter.text[0], "Payment Verified")
	assert.Contains(t, texter.text[0], "#3")
}

func TestRejectRecordsReasonAndNotifies(t *testing.T) {
	store := &fakeAdminStore{byID: map[int64]*bookings.Booking{3: pendingBooking()}}
	texter := &fakeTexter{}
	router := adminRouter(newAdminHandler(store, texter))

	body := bytes.NewBufferString(`{"reason":"amount mismatch"}`)
	req := httptest.NewRequest(http.MethodPost, "/admin/bookings/3/reject", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bookings.StatusRejected, store.updated[3])
	assert.Equal(t, "amount mismatch", store.notes[3])
	require.Len(t, texter.text, 1)
	assert.Contains(t, texter.text[0], "amount mismatch")
}

func TestDeleteBooking(t *testing.T) {
	store := &fakeAdminStore{}
	router := adminRouter(newAdminHandler(store, nil))

	req := httptest.NewRequest(http.MethodDelete, "/admin/bookings/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{5}, store.deleted)
}

func TestStats(t *testing.T) {
	store := &fakeAdminStore{stats: bookings.Stats{
		Total:            4,
		ByStatus:         map[string]int{"confirmed": 3, "payment_pending": 1},
		PendingReview:    1,
		ConfirmedRevenue: 2300,
	}}
	router := adminRouter(newAdminHandler(store, nil))

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats bookings.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2300, stats.ConfirmedRevenue)
}

func TestExportCSV(t *testing.T) {
	store := &fakeAdminStore{listed: []bookings.Booking{*pendingBooking()}}
	router := adminRouter(newAdminHandler(store, nil))

	req := httptest.NewRequest(http.MethodGet, "/admin/bookings/export", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "advance_required")
	assert.Contains(t, lines[1], "Spa Package")
	assert.Contains(t, lines[1], "payment_pending")
}

func TestInvalidBookingID(t *testing.T) {
	router := adminRouter(newAdminHandler(&fakeAdminStore{}, nil))

	req := httptest.NewRequest(http.MethodPost, "/admin/bookings/abc/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
