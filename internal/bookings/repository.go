package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the repository needs. pgxmock satisfies it
// in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Filter narrows admin booking listings.
type Filter struct {
	Identity string
	Status   Status
	FromDate string
	ToDate   string
	Limit    int
}

// Repository provides persistence helpers for bookings.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting mocks for tests.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

const bookingColumns = `id, identity, name, services, date, slot, total, advance_required,
	status, COALESCE(screenshot, ''), COALESCE(admin_notes, ''), created_at`

// Insert persists a new booking row and returns its id. Ids come from a
// sequence, so they are unique and monotonically increasing.
func (r *Repository) Insert(ctx context.Context, b Booking) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO bookings (identity, name, services, date, slot, total, advance_required, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, b.Identity, b.Name, b.Services, b.Date, b.Time, b.Total, b.AdvanceRequired, string(b.Status), b.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("bookings: insert: %w", err)
	}
	return id, nil
}

// Get loads one booking by id, or nil when it does not exist.
func (r *Repository) Get(ctx context.Context, id int64) (*Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("bookings: load %d: %w", id, err)
	}
	return b, nil
}

// List returns bookings matching the filter, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.Identity != "" {
		query += ` AND identity = ` + arg(f.Identity)
	}
	if f.Status != "" {
		query += ` AND status = ` + arg(string(f.Status))
	}
	if f.FromDate != "" {
		query += ` AND date >= ` + arg(f.FromDate)
	}
	if f.ToDate != "" {
		query += ` AND date <= ` + arg(f.ToDate)
	}
	query += ` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("bookings: scan: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CountByIdentity returns the caller's total booking count, for the
// "...and N more" suffix on truncated listings.
func (r *Repository) CountByIdentity(ctx context.Context, identity string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE identity = $1`, identity).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("bookings: count for %s: %w", identity, err)
	}
	return n, nil
}

// BookedSlots returns the slot labels already occupied by an active booking
// on the given date. Cancelled and rejected rows never hold a slot.
func (r *Repository) BookedSlots(ctx context.Context, date string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT slot FROM bookings WHERE date = $1 AND status = ANY($2)
	`, date, ActiveStatuses())
	if err != nil {
		return nil, fmt.Errorf("bookings: booked slots for %s: %w", date, err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("bookings: scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// UpdateStatus records an administrative decision. Notes are only written
// when non-empty (rejections carry a reason; approvals do not).
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status Status, notes string) error {
	var tag pgconn.CommandTag
	var err error
	if notes != "" {
		tag, err = r.db.Exec(ctx, `UPDATE bookings SET status = $1, admin_notes = $2 WHERE id = $3`,
			string(status), notes, id)
	} else {
		tag, err = r.db.Exec(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, string(status), id)
	}
	if err != nil {
		return fmt.Errorf("bookings: update status %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookings: update status %d: no such booking", id)
	}
	return nil
}

// AttachScreenshot links a stored payment-proof reference to a booking.
func (r *Repository) AttachScreenshot(ctx context.Context, id int64, ref string) error {
	tag, err := r.db.Exec(ctx, `UPDATE bookings SET screenshot = $1 WHERE id = $2`, ref, id)
	if err != nil {
		return fmt.Errorf("bookings: attach screenshot %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookings: attach screenshot %d: no such booking", id)
	}
	return nil
}

// Delete removes a booking row.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("bookings: delete %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bookings: delete %d: no such booking", id)
	}
	return nil
}

// Stats summarizes bookings for the admin dashboard.
type Stats struct {
	Total            int            `json:"total"`
	ByStatus         map[string]int `json:"by_status"`
	PendingReview    int            `json:"pending_review"`
	ConfirmedRevenue int            `json:"confirmed_revenue"`
	PopularServices  []ServiceCount `json:"popular_services"`
}

// ServiceCount is one entry of the most-booked services ranking.
type ServiceCount struct {
	ServiceID string `json:"service_id"`
	Count     int    `json:"count"`
}

// GetStats aggregates booking counts per status and the total value of
// confirmed bookings.
func (r *Repository) GetStats(ctx context.Context) (Stats, error) {
	stats := Stats{ByStatus: map[string]int{}}
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total), 0) FROM bookings GROUP BY status
	`)
	if err != nil {
		return stats, fmt.Errorf("bookings: stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count, sum int
		if err := rows.Scan(&status, &count, &sum); err != nil {
			return stats, fmt.Errorf("bookings: scan stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
		if status == string(StatusConfirmed) {
			stats.ConfirmedRevenue = sum
		}
		if status == string(StatusPaymentPending) {
			stats.PendingReview = count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("bookings: stats rows: %w", err)
	}

	popular, err := r.db.Query(ctx, `
		SELECT s, COUNT(*) FROM bookings, unnest(services) AS s
		GROUP BY s ORDER BY COUNT(*) DESC, s LIMIT 5
	`)
	if err != nil {
		return stats, fmt.Errorf("bookings: popular services: %w", err)
	}
	defer popular.Close()

	for popular.Next() {
		var sc ServiceCount
		if err := popular.Scan(&sc.ServiceID, &sc.Count); err != nil {
			return stats, fmt.Errorf("bookings: scan popular services: %w", err)
		}
		stats.PopularServices = append(stats.PopularServices, sc)
	}
	return stats, popular.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*Booking, error) {
	var b Booking
	var status string
	var created time.Time
	err := row.Scan(&b.ID, &b.Identity, &b.Name, &b.Services, &b.Date, &b.Time,
		&b.Total, &b.AdvanceRequired, &status, &b.Screenshot, &b.AdminNotes, &created)
	if err != nil {
		return nil, err
	}
	b.Status = Status(status)
	b.CreatedAt = created
	return &b, nil
}
