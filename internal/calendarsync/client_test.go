package calendarsync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuebook/internal/domain"
	"venuebook/internal/modules/errclass"
)

func TestHTTPSyncer_Lifecycle(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		switch r.Method {
		case http.MethodPost:
			var body eventBody
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(10), body.ReservationID)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "evt-1"})
		case http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s := NewHTTPSyncer(srv.URL+"/", "tok")
	row := confirmed(10)

	ref, err := s.CreateEvent(context.Background(), &row)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", ref)

	require.NoError(t, s.UpdateEvent(context.Background(), ref, &row))
	require.NoError(t, s.DeleteEvent(context.Background(), ref), "404 on delete means already gone")

	assert.Equal(t, []string{"POST /events", "PUT /events/evt-1", "DELETE /events/evt-1"}, calls)
}

func TestHTTPSyncer_StatusClassification(t *testing.T) {
	status := http.StatusBadRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	defer srv.Close()

	s := NewHTTPSyncer(srv.URL, "")
	row := confirmed(1)

	err := s.UpdateEvent(context.Background(), "x", &row)
	assert.True(t, errors.Is(err, ErrRejected))
	assert.False(t, errclass.Classify(err).Retryable())

	status = http.StatusServiceUnavailable
	err = s.UpdateEvent(context.Background(), "x", &row)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.True(t, errclass.Classify(err).Retryable())
}

func TestDisabled_IsNotRetryable(t *testing.T) {
	_, err := Disabled{}.CreateEvent(context.Background(), &domain.Reservation{})

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, errclass.Classify(err).Retryable())
}
