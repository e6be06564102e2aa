package actiongroup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// BookingRequest is a reservation as the agent describes it.
type BookingRequest struct {
	Date      string `json:"booking_date" validate:"required,datetime=2006-01-02"`
	Time      string `json:"booking_time" validate:"required,clock"`
	Name      string `json:"booking_name" validate:"required,max=200"`
	NumGuests int    `json:"num_guests" validate:"required,min=1,max=100"`
}

// upstreamBooking is the body the restaurant API expects.
type upstreamBooking struct {
	Date      string `json:"date"`
	Name      string `json:"name"`
	Hour      string `json:"hour"`
	NumGuests int    `json:"num_guests"`
}

type bookingID struct {
	ID string `validate:"required,max=200,excludesall=/?#{}"`
}

var clockLayouts = []string{"15:04", "15:04:05"}

// BookingClient proxies booking actions to the restaurant API.
type BookingClient struct {
	baseURL  string
	client   *http.Client
	validate *validator.Validate
}

// NewBookingClient creates a client for baseURL. An empty baseURL is
// accepted and reported when an action runs.
func NewBookingClient(baseURL string, client *http.Client) *BookingClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &BookingClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   client,
		validate: newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, ok := parseClock(fl.Field().String())
		return ok
	})
	return v
}

func parseClock(s string) (time.Time, bool) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Create books a table.
func (c *BookingClient) Create(ctx context.Context, req *Request) (any, error) {
	guests, err := req.Int("num_guests")
	if err != nil {
		return nil, err
	}
	b := BookingRequest{
		Date:      req.Param("booking_date", "date"),
		Time:      req.Param("booking_time", "hour"),
		Name:      req.Param("booking_name", "name"),
		NumGuests: guests,
	}
	if err := c.validate.Struct(b); err != nil {
		return nil, validationError(err)
	}
	clock, _ := parseClock(b.Time)

	body, err := json.Marshal(upstreamBooking{
		Date:      b.Date,
		Name:      b.Name,
		Hour:      clock.Format("15:04"),
		NumGuests: b.NumGuests,
	})
	if err != nil {
		return nil, fmt.Errorf("encode booking: %w", err)
	}
	return c.do(ctx, http.MethodPost, "/booking", body)
}

// Get fetches one booking by id.
func (c *BookingClient) Get(ctx context.Context, req *Request) (any, error) {
	id, err := c.bookingID(req)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodGet, "/booking/"+url.PathEscape(id), nil)
}

// Delete cancels one booking by id.
func (c *BookingClient) Delete(ctx context.Context, req *Request) (any, error) {
	id, err := c.bookingID(req)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodDelete, "/booking/"+url.PathEscape(id), nil)
}

func (c *BookingClient) bookingID(req *Request) (string, error) {
	in := bookingID{ID: req.Param("booking_id", "id")}
	if err := c.validate.Struct(in); err != nil {
		return "", validationError(err)
	}
	return in.ID, nil
}

func (c *BookingClient) do(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, &Error{Code: CodeBooking, Message: "RESTAURANT_API_BASE_URL environment variable is not set"}
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Code: CodeBooking, Message: "restaurant api request failed", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &Error{Code: CodeBooking, Message: "read restaurant api response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{
			Status:  resp.StatusCode,
			Code:    CodeBooking,
			Message: fmt.Sprintf("restaurant api %s %s: %d %s", method, path, resp.StatusCode, strings.TrimSpace(string(data))),
		}
	}
	if !json.Valid(data) {
		return nil, &Error{Code: CodeBooking, Message: "restaurant api returned invalid JSON"}
	}
	return json.RawMessage(data), nil
}

// validationError flattens validator errors into one bad-request message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return &Error{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: "invalid parameters: " + strings.Join(msgs, ", ")}
}
