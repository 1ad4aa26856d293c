package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/loghealer-client/api"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	server *httptest.Server
	client *api.Client

	mu      sync.Mutex
	queries []url.Values
}

func (f *apiFixture) lastQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func setupAPI(t *testing.T, routes map[string]http.HandlerFunc) *apiFixture {
	t.Helper()
	f := &apiFixture{}
	mux := http.NewServeMux()
	for pattern, h := range routes {
		h := h
		mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
			f.mu.Lock()
			f.queries = append(f.queries, r.URL.Query())
			f.mu.Unlock()
			h(w, r)
		})
	}
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	f.client = api.NewClient(f.server.URL+"/api/v1/", f.server.Client())
	return f
}

func jsonBody(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestDashboardStats(t *testing.T) {
	f := setupAPI(t, map[string]http.HandlerFunc{
		"GET /api/v1/dashboard/stats": jsonBody(http.StatusOK, `{
			"totalLogs": 1200, "totalErrors": 30, "totalExceptionGroups": 4,
			"logsByLevel": [{"level": "ERROR", "count": 30}],
			"topExceptions": [{"exceptionClass": "java.lang.NullPointerException", "count": 12, "status": "NEW"}],
			"projectStats": null
		}`),
	})

	stats, err := f.client.DashboardStats(context.Background(), "", "")
	require.NoError(t, err)
	require.Equal(t, int64(1200), stats.TotalLogs)
	require.Equal(t, "ERROR", stats.LogsByLevel[0].Level)
	require.Equal(t, "java.lang.NullPointerException", stats.TopExceptions[0].ExceptionClass)
	require.Nil(t, stats.ProjectStats)

	q := f.lastQuery()
	require.Equal(t, "24h", q.Get("timeRange"))
	require.False(t, q.Has("projectId"))

	_, err = f.client.DashboardStats(context.Background(), "p-1", "7d")
	require.NoError(t, err)
	require.Equal(t, "p-1", f.lastQuery().Get("projectId"))
	require.Equal(t, "7d", f.lastQuery().Get("timeRange"))
}

func TestExceptions(t *testing.T) {
	f := setupAPI(t, map[string]http.HandlerFunc{
		"GET /api/v1/exceptions": jsonBody(http.StatusOK, `[
			{"id": "e-1", "exceptionClass": "IOException", "firstSeen": "2024-05-01T10:00:00Z", "lastSeen": 1714557600000, "count": 3, "status": "NEW", "lastAnalysisId": null}
		]`),
	})

	groups, err := f.client.Exceptions(context.Background(), api.ExceptionQuery{Status: api.ExceptionNew})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "e-1", groups[0].ID)
	require.Equal(t, api.ExceptionNew, groups[0].Status)
	require.Nil(t, groups[0].LastAnalysisID)
	require.True(t, groups[0].FirstSeen.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
	require.True(t, groups[0].LastSeen.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))

	q := f.lastQuery()
	require.Equal(t, "0", q.Get("page"))
	require.Equal(t, "20", q.Get("size"))
	require.Equal(t, "NEW", q.Get("status"))
}

func TestException_NotFound(t *testing.T) {
	f := setupAPI(t, map[string]http.HandlerFunc{
		"GET /api/v1/exceptions/{id}": jsonBody(http.StatusNotFound, `{"message": "exception group not found"}`),
	})

	_, err := f.client.Exception(context.Background(), "missing")
	require.True(t, api.IsNotFound(err))

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "exception group not found", apiErr.Message)
}

func TestHealth_Unauthorized(t *testing.T) {
	f := setupAPI(t, map[string]http.HandlerFunc{
		"GET /api/v1/health": jsonBody(http.StatusUnauthorized, ``),
	})

	_, err := f.client.Health(context.Background())
	require.True(t, api.IsUnauthorized(err))
}

func TestTimestamp_EpochSeconds(t *testing.T) {
	var ts api.Timestamp
	require.NoError(t, ts.UnmarshalJSON([]byte(`1714557600.5`)))
	require.True(t, ts.Equal(time.Date(2024, 5, 1, 10, 0, 0, 500_000_000, time.UTC)))

	require.NoError(t, ts.UnmarshalJSON([]byte(`null`)))
	require.True(t, ts.IsZero())

	require.Error(t, ts.UnmarshalJSON([]byte(`"yesterday"`)))
}
