package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/couchcryptid/road-crash-etl-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/road-crash-etl-service/internal/geography"
	"github.com/couchcryptid/road-crash-etl-service/internal/observability"
	"github.com/couchcryptid/road-crash-etl-service/internal/query"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockQuerier struct {
	mu    sync.Mutex
	rows  []query.Row
	err   error
	block bool
	stmts []query.Statement
}

func (m *mockQuerier) Query(ctx context.Context, stmt query.Statement) ([]query.Row, error) {
	m.mu.Lock()
	m.stmts = append(m.stmts, stmt)
	m.mu.Unlock()
	if m.block {
		<-ctx.Done()
		return nil, fmt.Errorf("query crashes: %w", ctx.Err())
	}
	return m.rows, m.err
}

type testEnv struct {
	srv     *httpadapter.Server
	querier *mockQuerier
	metrics *observability.Metrics
}

func newTestEnv(t *testing.T, readyErr error, querier *mockQuerier) testEnv {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	crashes := httpadapter.NewCrashHandler(querier, 1000, 50*time.Millisecond, metrics, slog.Default())
	srv := httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, crashes, slog.Default())
	return testEnv{srv: srv, querier: querier, metrics: metrics}
}

func (e testEnv) post(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/list_crashes", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	e.srv.ServeHTTP(rec, req)
	return rec
}

func testRow(t *testing.T, id int64, lon, lat float64) query.Row {
	t.Helper()
	loc, err := geography.EncodeEWKB(geography.NewPoint(lon, lat))
	require.NoError(t, err)
	return query.Row{
		ID:            id,
		SeverityIndex: 32,
		SeverityID:    1,
		NatureID:      1,
		TypeID:        2,
		CrashDate:     time.Date(2019, time.March, 1, 17, 0, 0, 0, time.UTC),
		Location:      loc,
	}
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	env := newTestEnv(t, nil, &mockQuerier{})
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	ready := newTestEnv(t, nil, &mockQuerier{})
	rec := httptest.NewRecorder()
	ready.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	notReady := newTestEnv(t, errors.New("database unreachable"), &mockQuerier{})
	rec = httptest.NewRecorder()
	notReady.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil, &mockQuerier{})
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- list_crashes ---

func TestListCrashes_ReturnsProjectedRows(t *testing.T) {
	q := &mockQuerier{rows: []query.Row{testRow(t, 7, 153.0251, -27.4698)}}
	env := newTestEnv(t, nil, q)

	rec := env.post(t, `{"corner1":[153.5,-27.0],"corner2":[152.5,-28.0],"yearmin":2015}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var crashes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crashes))
	require.Len(t, crashes, 1)
	assert.InDelta(t, 7, crashes[0]["id"], 0)
	assert.Equal(t, []any{153.0251, -27.4698}, crashes[0]["location"])

	require.Len(t, q.stmts, 1)
	assert.Equal(t, []any{152.5, -28.0, 153.5, -27.0, 2015}, q.stmts[0].Args)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Queries.WithLabelValues("success")), 0)
}

func TestListCrashes_EmptyBodyMeansNoFilters(t *testing.T) {
	q := &mockQuerier{}
	env := newTestEnv(t, nil, q)

	rec := env.post(t, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	require.Len(t, q.stmts, 1)
	assert.Empty(t, q.stmts[0].Args)
	assert.NotContains(t, q.stmts[0].SQL, "WHERE")
}

func TestListCrashes_BadGeometryFlagsOnlyThatRow(t *testing.T) {
	bad := testRow(t, 2, 0, 0)
	bad.Location = []byte{0x00}
	q := &mockQuerier{rows: []query.Row{testRow(t, 1, 153, -27), bad}}
	env := newTestEnv(t, nil, q)

	rec := env.post(t, `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var crashes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crashes))
	require.Len(t, crashes, 2)
	assert.NotNil(t, crashes[0]["location"])
	assert.NotContains(t, crashes[0], "location_error")
	assert.Nil(t, crashes[1]["location"])
	assert.NotEmpty(t, crashes[1]["location_error"])
}

func TestListCrashes_ClientErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"yearmin":`},
		{"wrong type", `{"yearmin":"2015"}`},
		{"years inverted", `{"yearmin":2020,"yearmax":2010}`},
		{"one corner", `{"corner1":[153,-27]}`},
		{"short corner", `{"corner1":[153],"corner2":[152,-28]}`},
		{"unknown vehicle", `{"vehicle_types":["tram"]}`},
		{"trailing garbage", `{} trailing-garbage`},
		{"second object", `{"yearmin":2015} {"yearmax":2010}`},
		{"trailing comma", `{"yearmin":2015},`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &mockQuerier{}
			env := newTestEnv(t, nil, q)

			rec := env.post(t, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.Empty(t, q.stmts, "invalid filters must not reach the store")
			assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Queries.WithLabelValues("invalid")), 0)
		})
	}
}

func TestListCrashes_TrailingWhitespaceAccepted(t *testing.T) {
	q := &mockQuerier{}
	env := newTestEnv(t, nil, q)

	rec := env.post(t, "{\"yearmin\":2015}\n  \n")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, q.stmts, 1)
	assert.Equal(t, []any{2015}, q.stmts[0].Args)
}

func TestListCrashes_OversizedBody(t *testing.T) {
	env := newTestEnv(t, nil, &mockQuerier{})
	body := `{"vehicle_types":["` + strings.Repeat("x", 70<<10) + `"]}`
	rec := env.post(t, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListCrashes_StoreError(t *testing.T) {
	env := newTestEnv(t, nil, &mockQuerier{err: errors.New("relation \"crashlocations\" does not exist")})

	rec := env.post(t, `{}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "crashlocations")
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Queries.WithLabelValues("error")), 0)
}

func TestListCrashes_Timeout(t *testing.T) {
	env := newTestEnv(t, nil, &mockQuerier{block: true})

	rec := env.post(t, `{}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.InDelta(t, 1, testutil.ToFloat64(env.metrics.Queries.WithLabelValues("timeout")), 0)
}

func TestListCrashes_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, nil, &mockQuerier{})
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list_crashes", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
