// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(n int) Counter {
	return func(context.Context) (int, error) { return n, nil }
}

func TestSystemStats(t *testing.T) {
	h := NewHandler(HandlerConfig{
		DBStats:       func() sql.DBStats { return sql.DBStats{OpenConnections: 3} },
		DBPing:        func(context.Context) error { return nil },
		RedisPing:     func(context.Context) error { return errors.New("down") },
		CountUsers:    fixed(2),
		CountPosts:    fixed(10),
		CountComments: func(context.Context) (int, error) { return 0, errors.New("boom") },
	})

	r := chi.NewRouter()
	h.RegisterRoutes(r, func(next http.Handler) http.Handler { return next })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body SystemStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.Database.Healthy)
	require.NotNil(t, body.Database.Stats)
	assert.Equal(t, 3, body.Database.Stats.OpenConnections)
	assert.False(t, body.Redis.Healthy)
	assert.Nil(t, body.Redis.Stats)
	assert.Equal(t, ContentCounts{Users: 2, Posts: 10, Comments: -1}, body.Content)
	assert.NotEmpty(t, body.Runtime.GoVersion)
}

func TestStatsGuarded(t *testing.T) {
	h := NewHandler(HandlerConfig{})
	r := chi.NewRouter()
	h.RegisterRoutes(r, func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
