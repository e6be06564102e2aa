package actiongroup

import (
	"log/slog"
	"net/http"
	"time"
)

// Config wires the action-group backends.
type Config struct {
	RestaurantAPIBaseURL string
	GutendexURL          string
	SerpAPIURL           string
	SerpAPIKey           string
	CacheTTL             time.Duration
	Timeout              time.Duration
}

// NewDefaultRouter registers every action the deployed agents call.
// Booking actions are reachable under both the query and path styles.
func NewDefaultRouter(cfg Config, logger *slog.Logger) *Router {
	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Timeout <= 0 {
		client.Timeout = 15 * time.Second
	}

	bookings := NewBookingClient(cfg.RestaurantAPIBaseURL, client)
	books := NewBookClient(cfg.GutendexURL, client, cfg.CacheTTL)
	finder := NewRestaurantFinder(cfg.SerpAPIURL, cfg.SerpAPIKey, client, cfg.CacheTTL)

	r := NewRouter(logger)
	r.Handle(http.MethodPost, "/booking", CodeBooking, bookings.Create)
	r.Handle(http.MethodPost, "/create_booking", CodeBooking, bookings.Create)
	r.Handle(http.MethodGet, "/bookings", CodeBooking, bookings.Get)
	r.Handle(http.MethodGet, "/get_booking/{booking_id}", CodeBooking, bookings.Get)
	r.Handle(http.MethodDelete, "/bookings", CodeBooking, bookings.Delete)
	r.Handle(http.MethodDelete, "/booking/{booking_id}", CodeBooking, bookings.Delete)
	r.Handle(http.MethodDelete, "/delete_booking/{booking_id}", CodeBooking, bookings.Delete)
	r.Handle(http.MethodGet, "/top_books", CodeActionGroup, books.Top)
	r.Handle(http.MethodGet, "/get_restaurants", CodeActionGroup, finder.Find)
	return r
}
