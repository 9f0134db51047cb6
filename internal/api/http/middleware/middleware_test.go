package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/auth"
	"github.com/GoSim-25-26J-441/brandsite-backend/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestIDMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := logging.NewWithWriter(&buf, "test", slog.LevelInfo)

	r := gin.New()
	r.Use(RequestIDMiddleware(base))
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c.Request.Context()))
	})

	t.Run("echoes supplied id", func(t *testing.T) {
		buf.Reset()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		r.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
		assert.Equal(t, "abc-123", w.Body.String())

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "abc-123", line["request_id"])
		assert.Equal(t, float64(http.StatusOK), line["status"])
	})

	t.Run("generates id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Len(t, w.Header().Get(HeaderRequestID), 36)
	})
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetIdentity(c, auth.Identity{UserID: c.GetHeader("X-User-Id"), Role: auth.RoleUser})
		c.Next()
	})
	r.Use(rl.Middleware())
	r.POST("/revalidate", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(user string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/revalidate", nil)
		req.Header.Set("X-User-Id", user)
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusOK, do("a"))
	assert.Equal(t, http.StatusTooManyRequests, do("a"))
	assert.Equal(t, http.StatusOK, do("b"), "buckets are per user")
}

func TestRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		require.True(t, rl.Allow("k"))
	}
}

func TestRateLimiter_EvictsIdleCallers(t *testing.T) {
	rl := NewRateLimiter(1)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	rl.lastPrune = clock

	for i := 0; i < 50; i++ {
		rl.Allow(fmt.Sprintf("ip:10.0.0.%d", i))
	}
	require.True(t, rl.Allow("busy"))
	assert.False(t, rl.Allow("busy"))
	assert.Equal(t, 51, rl.Len())

	clock = clock.Add(idleTTL - time.Minute)
	rl.Allow("busy")
	clock = clock.Add(time.Minute)
	rl.Allow("other")
	assert.Equal(t, 2, rl.Len(), "only callers seen within the idle window survive")
}
