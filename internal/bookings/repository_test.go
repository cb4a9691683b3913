package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepositoryWithDB(mock), mock
}

func TestInsertReturnsSequenceID(t *testing.T) {
	repo, mock := newMockRepo(t)

	created := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs("919876543210", "Asha", []string{"1", "3"}, "2026-09-01", "11:00 AM",
			230, 0, "confirmed", created).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := repo.Insert(context.Background(), Booking{
		Identity:  "919876543210",
		Name:      "Asha",
		Services:  []string{"1", "3"},
		Date:      "2026-09-01",
		Time:      "11:00 AM",
		Total:     230,
		Status:    StatusConfirmed,
		CreatedAt: created,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBookedSlotsFiltersActiveStatuses(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT slot FROM bookings").
		WithArgs("2026-09-01", ActiveStatuses()).
		WillReturnRows(pgxmock.NewRows([]string{"slot"}).AddRow("11:00 AM").AddRow("02:00 PM"))

	slots, err := repo.BookedSlots(context.Background(), "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"11:00 AM", "02:00 PM"}, slots)
}

func TestActiveStatusesExcludeTerminalOnes(t *testing.T) {
	active := ActiveStatuses()
	assert.ElementsMatch(t, []string{"confirmed", "payment_pending", "pending"}, active)
	assert.NotContains(t, active, "cancelled")
	assert.NotContains(t, active, "rejected")
}

func TestUpdateStatusWithNotes(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE bookings SET status = \\$1, admin_notes = \\$2").
		WithArgs("rejected", "blurry screenshot", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.UpdateStatus(context.Background(), 7, StatusRejected, "blurry screenshot")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusMissingBooking(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE bookings SET status = \\$1 WHERE").
		WithArgs("confirmed", int64(999)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), 999, StatusConfirmed, "")
	assert.Error(t, err)
}

func TestGetMissingReturnsNil(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"id"}))

	b, err := repo.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestListByIdentityOrdersAndLimits(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := pgxmock.NewRows([]string{"id", "identity", "name", "services", "date", "slot",
		"total", "advance_required", "status", "screenshot", "admin_notes", "created_at"}).
		AddRow(int64(2), "a", "Asha", []string{"7"}, "2026-09-02", "10:00 AM",
			1500, 750, "payment_pending", "shot.jpg", "", time.Now()).
		AddRow(int64(1), "a", "Asha", []string{"1"}, "2026-09-01", "11:00 AM",
			150, 0, "confirmed", "", "", time.Now())

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE 1=1 AND identity").
		WithArgs("a", 5).
		WillReturnRows(rows)

	out, err := repo.List(context.Background(), Filter{Identity: "a", Limit: 5})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[0].ID)
	assert.Equal(t, StatusPaymentPending, out[0].Status)
	assert.Equal(t, "shot.jpg", out[0].Screenshot)
}

func TestGetStatsAggregates(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\), COALESCE").
		WillReturnRows(pgxmock.NewRows([]string{"status", "count", "sum"}).
			AddRow("confirmed", 3, 4200).
			AddRow("payment_pending", 2, 3000).
			AddRow("rejected", 1, 2500))
	mock.ExpectQuery("SELECT s, COUNT\\(\\*\\) FROM bookings, unnest").
		WillReturnRows(pgxmock.NewRows([]string{"s", "count"}).
			AddRow("7", 4).
			AddRow("1", 2))

	stats, err := repo.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Equal(t, 3, stats.ByStatus["confirmed"])
	assert.Equal(t, 2, stats.PendingReview)
	assert.Equal(t, 4200, stats.ConfirmedRevenue)
	require.Len(t, stats.PopularServices, 2)
	assert.Equal(t, ServiceCount{ServiceID: "7", Count: 4}, stats.PopularServices[0])
	require.NoError(t, mock.ExpectationsWereMet())
}
