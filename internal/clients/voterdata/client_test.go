package voterdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/civicgrid/victory/internal/clientdata"
	"github.com/civicgrid/victory/internal/database"
	"github.com/civicgrid/victory/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveRequest(endpoint, outcome string) {
	o.calls = append(o.calls, endpoint+":"+outcome)
}

func newTestClient(t *testing.T, handler http.Handler, cache *clientdata.Repository) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL:    srv.URL + "/api/v2",
		CustomerID: "cust",
		APIID:      "app",
		APIKey:     "secret",
		Timeout:    5 * time.Second,
	}, NoDelay{}, cache, zerolog.Nop())
}

func newCacheRepo(t *testing.T) *clientdata.Repository {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return clientdata.NewRepository(db.Conn(), zerolog.Nop())
}

func TestColumns(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/records/columns/cust/app/GA", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{"columns":[{"id":"City_Council","name":"City Council","type":"ElectionType","indexed":true},{"id":"General_2022_11_08","type":"VoteHistory","indexed":true}]}`))
	}), nil)

	cols, err := client.Columns(context.Background(), "ga")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "City_Council", cols[0].ID)
	assert.Equal(t, CategoryElectionType, cols[0].Category)
	assert.True(t, cols[1].Indexed)
}

func TestColumnValues_CacheFirst(t *testing.T) {
	var hits int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`{"values":["GA##ATLANTA CITY CNCL 1",""]}`))
	}), newCacheRepo(t))

	for i := 0; i < 3; i++ {
		values, err := client.ColumnValues(context.Background(), "GA", "City_Council")
		require.NoError(t, err)
		assert.Equal(t, []string{"GA##ATLANTA CITY CNCL 1", ""}, values)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestColumns_StaleFallback(t *testing.T) {
	cache := newCacheRepo(t)
	require.NoError(t, cache.Store(clientdata.TableColumns, "GA", []Column{{ID: "City_Ward"}}, -time.Hour))

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), cache)

	cols, err := client.Columns(context.Background(), "GA")
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "City_Ward", cols[0].ID)
}

func TestCounts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/records/count/cust/app/GA"))

		var req countRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, Filter{"City_Council": "GA##ATLANTA CITY CNCL 1"}, req.Filters)
		assert.Equal(t, []string{DimensionParty}, req.Columns)

		_, _ = w.Write([]byte(`[{"__COUNT":"2000","Parties_Description":"Democratic"},{"__COUNT":1500,"Parties_Description":"Republican"},{"__COUNT":1500,"Parties_Description":"Non-Partisan"}]`))
	}), nil)

	rows, err := client.Counts(context.Background(), "GA", DistrictFilter("City_Council", "GA##ATLANTA CITY CNCL 1"), DimensionParty)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CountRow{Value: "Democratic", Count: 2000}, rows[0])
	assert.Equal(t, 5000, SumCounts(rows))
}

func TestTurnoutEstimate(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req estimateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "General_2022_11_08", req.VoteHistory)
		assert.NotNil(t, req.Filters)
		_, _ = w.Write([]byte(`{"results":{"count":812}}`))
	}), nil)

	n, err := client.TurnoutEstimate(context.Background(), "GA", nil, "General_2022_11_08")
	require.NoError(t, err)
	assert.Equal(t, 812, n)
}

func TestUpstreamErrorAndObserver(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}), nil)
	obs := &recordingObserver{}
	client.SetObserver(obs)

	_, err := client.TurnoutEstimate(context.Background(), "GA", nil, "General_2022_11_08")
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, []string{"estimate:http_error"}, obs.calls)
}

func TestParseCountRows(t *testing.T) {
	rows, err := parseCountRows([]byte(`[{"__COUNT":"12.0","Voters_Gender":"F"},{"__COUNT":null,"Voters_Gender":null}]`), DimensionGender)
	require.NoError(t, err)
	assert.Equal(t, []CountRow{{Value: "F", Count: 12}, {Value: "", Count: 0}}, rows)

	_, err = parseCountRows([]byte(`{"not":"an array"}`), DimensionGender)
	assert.Error(t, err)
}
