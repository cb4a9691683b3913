package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/smartsalon/salon-booking-bot/internal/bookings"
	"github.com/smartsalon/salon-booking-bot/internal/catalog"
	"github.com/smartsalon/salon-booking-bot/internal/http/middleware"
	"github.com/smartsalon/salon-booking-bot/internal/whatsapp"
	"github.com/smartsalon/salon-booking-bot/pkg/logging"
)

// BookingAdminStore is the persistence surface the admin API needs.
type BookingAdminStore interface {
	Get(ctx context.Context, id int64) (*bookings.Booking, error)
	List(ctx context.Context, f bookings.Filter) ([]bookings.Booking, error)
	UpdateStatus(ctx context.Context, id int64, status bookings.Status, notes string) error
	Delete(ctx context.Context, id int64) error
	GetStats(ctx context.Context) (bookings.Stats, error)
}

// CustomerTexter sends a WhatsApp text to a customer. Nil disables customer
// notifications on admin decisions.
type CustomerTexter interface {
	SendText(ctx context.Context, to, text string) (*whatsapp.SendResponse, error)
}

// AdminHandler serves the salon staff JSON API.
type AdminHandler struct {
	store     BookingAdminStore
	texter    CustomerTexter
	catalog   *catalog.Catalog
	password  string
	jwtSecret string
	tokenTTL  time.Duration
	logger    *logging.Logger
}

// NewAdminHandler wires the admin API.
func NewAdminHandler(store BookingAdminStore, texter CustomerTexter, cat *catalog.Catalog,
	password, jwtSecret string, tokenTTL time.Duration, logger *logging.Logger) *AdminHandler {
	if store == nil {
		panic("handlers: admin store cannot be nil")
	}
	if cat == nil {
		panic("handlers: catalog cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AdminHandler{
		store:     store,
		texter:    texter,
		catalog:   cat,
		password:  password,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Login handles POST /admin/login and mints a short-lived JWT.
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.password == "" || h.jwtSecret == "" {
		http.Error(w, "admin access not configured", http.StatusServiceUnavailable)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) != 1 {
		h.logger.Warn("admin login rejected", "remote_ip", r.RemoteAddr)
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	expires := time.Now().Add(h.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    middleware.AdminIssuer,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		h.logger.Error("token signing failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires.UTC().Format(time.RFC3339)})
}

type bookingResponse struct {
	ID              int64    `json:"id"`
	Identity        string   `json:"identity"`
	Name            string   `json:"name"`
	Services        []string `json:"services"`
	ServiceNames    []string `json:"service_names"`
	Date            string   `json:"date"`
	Time            string   `json:"time"`
	Total           int      `json:"total"`
	AdvanceRequired int      `json:"advance_required"`
	Status          string   `json:"status"`
	Screenshot      string   `json:"screenshot,omitempty"`
	AdminNotes      string   `json:"admin_notes,omitempty"`
	CreatedAt       string   `json:"created_at"`
}

func (h *AdminHandler) toResponse(b bookings.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID,
		Identity:        b.Identity,
		Name:            b.Name,
		Services:        b.Services,
		ServiceNames:    h.catalog.ServiceNames(b.Services),
		Date:            b.Date,
		Time:            b.Time,
		Total:           b.Total,
		AdvanceRequired: b.AdvanceRequired,
		Status:          string(b.Status),
		Screenshot:      b.Screenshot,
		AdminNotes:      b.AdminNotes,
		CreatedAt:       b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListBookings handles GET /admin/bookings with optional status, identity,
// from, to and limit query filters.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := bookings.Filter{
		Identity: q.Get("identity"),
		Status:   bookings.Status(q.Get("status")),
		FromDate: q.Get("from"),
		ToDate:   q.Get("to"),
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = limit
	}

	list, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list bookings failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]bookingResponse, 0, len(list))
	for _, b := range list {
		out = append(out, h.toResponse(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": out, "count": len(out)})
}

// GetBooking handles GET /admin/bookings/{id}.
func (h *AdminHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	b, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("load booking failed", "error", err, "booking_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, h.toResponse(*b))
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		h.logger.Error("stats failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Approve handles POST /admin/bookings/{id}/approve: payment verified, the
// booking becomes confirmed and the customer is told.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, bookings.StatusConfirmed, "")
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// Reject handles POST /admin/bookings/{id}/reject with an optional reason.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	h.decide(w, r, bookings.StatusRejected, req.Reason)
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, status bookings.Status, notes string) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}

	b, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("load booking failed", "error", err, "booking_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if b == nil {
		http.Error(w, "booking not found", http.StatusNotFound)
		return
	}

	if err := h.store.UpdateStatus(r.Context(), id, status, notes); err != nil {
		h.logger.Error("status update failed", "error", err, "booking_id", id, "status", string(status))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.logger.Info("booking decision recorded", "booking_id", id, "status", string(status))

	h.notifyCustomer(r.Context(), *b, status, notes)

	b.Status = status
	if notes != "" {
		b.AdminNotes = notes
	}
	writeJSON(w, http.StatusOK, h.toResponse(*b))
}

// notifyCustomer tells the customer about the decision. Best effort: an
// unreachable customer must not fail the admin action.
func (h *AdminHandler) notifyCustomer(ctx context.Context, b bookings.Booking, status bookings.Status, notes string) {
	if h.texter == nil {
		return
	}

	var text string
	switch status {
	case bookings.StatusConfirmed:
		text = fmt.Sprintf("🎉 *Payment Verified!*\n\n"+
			"Your booking *#%d* is confirmed.\n\n"+
			"*Date:* %s\n*Time:* %s\n\n"+
			"See you at *%s*! ✨", b.ID, b.Date, b.Time, h.catalog.Salon.Name)
	case bookings.StatusRejected:
		text = fmt.Sprintf("😔 *Payment Verification Failed*\n\n"+
			"We could not verify payment for booking *#%d*.", b.ID)
		if notes != "" {
			text += "\n\n*Reason:* " + notes
		}
		text += "\n\nPlease contact us or start a new booking with *Menu*."
	default:
		return
	}

	if _, err := h.texter.SendText(ctx, b.Identity, text); err != nil {
		h.logger.Error("customer notification failed", "error", err, "booking_id", b.ID)
	}
}

// DeleteBooking handles DELETE /admin/bookings/{id}.
func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := h.bookingID(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "no such booking") {
			http.Error(w, "booking not found", http.StatusNotFound)
			return
		}
		h.logger.Error("delete booking failed", "error", err, "booking_id", id)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCSV handles GET /admin/bookings/export and streams all bookings.
func (h *AdminHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context(), bookings.Filter{})
	if err != nil {
		h.logger.Error("export failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.csv"`)

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"id", "identity", "name", "services", "date", "time",
		"total", "advance_required", "status", "admin_notes", "created_at"})
	for _, b := range list {
		_ = cw.Write([]string{
			strconv.FormatInt(b.ID, 10),
			b.Identity,
			b.Name,
			strings.Join(h.catalog.ServiceNames(b.Services), "; "),
			b.Date,
			b.Time,
			strconv.Itoa(b.Total),
			strconv.Itoa(b.AdvanceRequired),
			string(b.Status),
			b.AdminNotes,
			b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	cw.Flush()
}

func (h *AdminHandler) bookingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
