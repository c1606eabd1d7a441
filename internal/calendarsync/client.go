package calendarsync

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

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
)

// ErrRejected marks a 4xx answer. Retrying the same request cannot succeed.
var ErrRejected = fmt.Errorf("calendar service rejected the request: %w", errclass.ErrValidation)

type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("calendar sync %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

func (e *StatusError) Unwrap() error {
	if e.Code >= 400 && e.Code < 500 {
		return ErrRejected
	}
	return errclass.ErrTransient
}

// Syncer is the external calendar. Refs are the calendar's event ids.
type Syncer interface {
	CreateEvent(ctx context.Context, r *domain.Reservation) (string, error)
	UpdateEvent(ctx context.Context, ref string, r *domain.Reservation) error
	DeleteEvent(ctx context.Context, ref string) error
}

// ErrNotConfigured is returned by Disabled for every call.
var ErrNotConfigured = fmt.Errorf("calendar sync is not configured: %w", errclass.ErrValidation)

// Disabled is the Syncer used when no calendar service URL is set.
type Disabled struct{}

func (Disabled) CreateEvent(context.Context, *domain.Reservation) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) UpdateEvent(context.Context, string, *domain.Reservation) error {
	return ErrNotConfigured
}

func (Disabled) DeleteEvent(context.Context, string) error { return ErrNotConfigured }

type HTTPSyncer struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPSyncer(baseURL, token string) *HTTPSyncer {
	return &HTTPSyncer{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type eventBody struct {
	ReservationID int64     `json:"reservation_id"`
	TenantID      int64     `json:"tenant_id"`
	ResourceID    int64     `json:"resource_id"`
	Title         string    `json:"title"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
}

func toEventBody(r *domain.Reservation) eventBody {
	return eventBody{
		ReservationID: r.ID,
		TenantID:      r.TenantID,
		ResourceID:    r.ResourceID,
		Title:         r.CustomerName,
		Start:         r.StartTime.UTC(),
		End:           r.EndTime.UTC(),
		Status:        string(r.Status),
	}
}

func (s *HTTPSyncer) CreateEvent(ctx context.Context, r *domain.Reservation) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	if err := s.do(ctx, http.MethodPost, "/events", toEventBody(r), &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("calendar sync create: empty event id: %w", errclass.ErrTransient)
	}
	return out.ID, nil
}

func (s *HTTPSyncer) UpdateEvent(ctx context.Context, ref string, r *domain.Reservation) error {
	return s.do(ctx, http.MethodPut, "/events/"+url.PathEscape(ref), toEventBody(r), nil)
}

// DeleteEvent treats an already missing event as deleted.
func (s *HTTPSyncer) DeleteEvent(ctx context.Context, ref string) error {
	err := s.do(ctx, http.MethodDelete, "/events/"+url.PathEscape(ref), nil, nil)
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusNotFound || se.Code == http.StatusGone) {
		return nil
	}
	return err
}

func (s *HTTPSyncer) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("calendar sync %s %s: %w: %v", method, path, errclass.ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("calendar sync %s %s: decode: %w", method, path, err)
	}
	return nil
}
