package app

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"venuebook/internal/calendarsync"
	"venuebook/internal/config"
	"venuebook/internal/notification"
)

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                  "test",
		DatabaseURL:             fmt.Sprintf("file:%s?mode=memory&cache=shared&_time_format=sqlite", uuid.NewString()),
		JWTSecret:               "app-test-secret",
		JWTAccessTTL:            time.Hour,
		LockBackend:             config.LockMutex,
		LockTTL:                 time.Second,
		LockWait:                time.Second,
		SyncBackend:             config.SyncInline,
		RetryMaxAttempts:        2,
		RetryBaseDelay:          time.Millisecond,
		RecurringMaxOccurrences: 10,
		FinalizeInterval:        time.Minute,
		FinalizeGrace:           time.Hour,
	}
}

func TestNew_DefaultsWithoutExternalServices(t *testing.T) {
	a, err := New(testConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Nil(t, a.inline, "no calendar URL means no inline dispatcher")
	assert.IsType(t, calendarsync.Nop{}, a.newDispatcher())
	assert.IsType(t, notification.Nop{}, a.newNotifier())
	assert.IsType(t, calendarsync.Disabled{}, a.newSyncer())
}

func TestNew_InlineSyncWhenURLSet(t *testing.T) {
	cfg := testConfig()
	cfg.CalendarSyncURL = "http://calendar.invalid"

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.NotNil(t, a.inline)
	assert.IsType(t, &calendarsync.HTTPSyncer{}, a.newSyncer())
}

func TestNew_RedisLockFailsFastWhenUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.LockBackend = config.LockRedis
	cfg.RedisAddr = "127.0.0.1:1"
	cfg.LockWait = 200 * time.Millisecond

	_, err := New(cfg, zap.NewNop())

	assert.ErrorContains(t, err, "redis ping")
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := New(testConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	r := a.Router()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/resources", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := a.Tokens.GenerateToken(1, 1, "owner")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pricing/space-quote",
		strings.NewReader(`{"rate":"40","start_time":"2030-01-07T10:00:00Z","end_time":"2030-01-07T11:30:00Z"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var out struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, "60.00", out.Data["total"])
}
