package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/events"
	testingpkg "github.com/civicgrid/victory/internal/testing"
)

type pingModule struct{}

func (pingModule) RegisterRoutes(r chi.Router) {
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})
}

type fixedCounts map[domain.P2VStatus]int

func (f fixedCounts) CountByStatus() (map[domain.P2VStatus]int, error) {
	return f, nil
}

type stubJob struct {
	name string
	err  error
	runs int
}

func (j *stubJob) Run() error {
	j.runs++
	return j.err
}

func (j *stubJob) Name() string { return j.name }

func newTestServer(t *testing.T, system *SystemHandlers, bus *events.Bus) *Server {
	t.Helper()
	return New(Config{
		Log:      zerolog.New(nil).Level(zerolog.Disabled),
		Port:     0,
		DevMode:  true,
		EventBus: bus,
		System:   system,
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
		Modules: []RouteRegistrar{pingModule{}},
	})
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, nil, nil)

	w := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "victory", health["service"])

	w = get(t, s.Handler(), "/api/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = get(t, s.Handler(), "/metrics")
	assert.Equal(t, "# metrics", w.Body.String())

	w = get(t, s.Handler(), "/api/system/status")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSystemHandlers_Status(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t, "p2v")
	defer cleanup()

	system := NewSystemHandlers(zerolog.Nop(), t.TempDir(), fixedCounts{domain.StatusComplete: 3, domain.StatusWaiting: 1}, db, nil)
	s := newTestServer(t, system, nil)

	w := get(t, s.Handler(), "/api/system/status")
	require.Equal(t, http.StatusOK, w.Code)

	var response SystemStatusResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "healthy", response.Status)
	require.Len(t, response.Databases, 1)
	assert.Equal(t, "p2v", response.Databases[0].Name)
	assert.True(t, response.Databases[0].Healthy)
	assert.Equal(t, 3, response.Records["Complete"])
	assert.Equal(t, 1, response.Records["Waiting"])
}

func TestSystemHandlers_Jobs(t *testing.T) {
	ok := &stubJob{name: "requeue_stale_waiting"}
	failing := &stubJob{name: "check_wal_checkpoints", err: errors.New("locked")}
	system := NewSystemHandlers(zerolog.Nop(), "", nil)
	system.SetJobs(ok, failing, nil)
	s := newTestServer(t, system, nil)

	w := get(t, s.Handler(), "/api/system/jobs")
	assert.JSONEq(t, `{"jobs":["check_wal_checkpoints","requeue_stale_waiting"]}`, w.Body.String())

	post := func(path string) int {
		req := httptest.NewRequest("POST", path, nil)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, post("/api/system/jobs/requeue_stale_waiting"))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, http.StatusInternalServerError, post("/api/system/jobs/check_wal_checkpoints"))
	assert.Equal(t, http.StatusNotFound, post("/api/system/jobs/unknown"))
}

func TestEventsStream(t *testing.T) {
	bus := events.NewBus()
	srv := httptest.NewServer(newTestServer(t, nil, bus).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/events/stream?types=P2V_STATUS_CHANGED", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readData := func() map[string]interface{} {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, "data: ") {
				var payload map[string]interface{}
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &payload))
				return payload
			}
		}
	}

	assert.Equal(t, "connected", readData()["type"])
	require.Eventually(t, func() bool {
		return bus.SubscriberCount(events.P2VStatusChanged) == 1
	}, time.Second, 10*time.Millisecond)

	bus.Emit(events.P2VDistrictSet, "pathtovictory", map[string]interface{}{"campaign_id": "skipped"})
	bus.Emit(events.P2VStatusChanged, "pathtovictory", map[string]interface{}{"campaign_id": "camp-1"})

	payload := readData()
	assert.Equal(t, "P2V_STATUS_CHANGED", payload["type"])
	assert.Equal(t, "camp-1", payload["data"].(map[string]interface{})["campaign_id"])

	cancel()
	assert.Eventually(t, func() bool {
		return bus.SubscriberCount(events.P2VStatusChanged) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEventsSocket(t *testing.T) {
	bus := events.NewBus()
	srv := httptest.NewServer(newTestServer(t, nil, bus).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/events/ws", nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var msg map[string]interface{}
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "connected", msg["type"])

	bus.Emit(events.P2VDistrictSet, "pathtovictory", map[string]interface{}{"campaign_id": "camp-2"})

	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "P2V_DISTRICT_SET", msg["type"])
	assert.Equal(t, "pathtovictory", msg["module"])
}
