package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/civicgrid/victory/internal/domain"
	"github.com/civicgrid/victory/internal/modules/campaigns"
	"github.com/civicgrid/victory/internal/modules/pathtovictory"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	record *pathtovictory.Record
	getErr error
	setErr error
	set    []domain.DistrictMatch
}

func (s *stubService) Get(string) (*pathtovictory.Record, error) {
	return s.record, s.getErr
}

func (s *stubService) SetDistrict(_ context.Context, id string, m domain.DistrictMatch) (pathtovictory.Record, domain.RaceQuery, error) {
	s.set = append(s.set, m)
	if s.setErr != nil {
		return pathtovictory.Record{}, domain.RaceQuery{}, s.setErr
	}
	return pathtovictory.Record{
		CampaignID:       id,
		ElectionType:     m.ElectionType,
		ElectionLocation: m.ElectionLocation,
		Status:           domain.StatusDistrictMatched,
		Source:           pathtovictory.SourceAdmin,
	}, domain.RaceQuery{CampaignID: id}, nil
}

type campaignMap map[string]*campaigns.Campaign

func (m campaignMap) Get(id string) (*campaigns.Campaign, error) {
	return m[id], nil
}

type stubEnqueuer struct {
	queries []domain.RaceQuery
	err     error
}

func (e *stubEnqueuer) Enqueue(_ context.Context, q domain.RaceQuery, _ *domain.DistrictMatch) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	e.queries = append(e.queries, q)
	return fmt.Sprintf("job-%d", len(e.queries)), nil
}

func newRouter(svc *stubService, cs campaignMap, enq *stubEnqueuer) chi.Router {
	handler := NewHandler(svc, cs, enq, zerolog.New(nil).Level(zerolog.Disabled))
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleGetRecord(t *testing.T) {
	svc := &stubService{record: &pathtovictory.Record{
		CampaignID: "camp-1",
		Status:     domain.StatusComplete,
		Counts:     domain.VoterCounts{Total: 1200, WinNumber: domain.IntPtr(301)},
	}}

	w := do(newRouter(svc, nil, nil), "GET", "/p2v/camp-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response struct {
		Data     pathtovictory.Record   `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, domain.StatusComplete, response.Data.Status)
	require.NotNil(t, response.Data.Counts.WinNumber)
	assert.Equal(t, 301, *response.Data.Counts.WinNumber)
	assert.Contains(t, response.Metadata, "timestamp")
}

func TestHandleGetRecord_Missing(t *testing.T) {
	w := do(newRouter(&stubService{}, nil, nil), "GET", "/p2v/camp-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(newRouter(&stubService{getErr: errors.New("disk")}, nil, nil), "GET", "/p2v/camp-1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHandleSetDistrict(t *testing.T) {
	svc := &stubService{}
	body := SetDistrictRequest{ElectionType: "City_Council", ElectionLocation: "ATLANTA CITY CNCL 1"}

	w := do(newRouter(svc, nil, nil), "PUT", "/p2v/camp-1/district", body)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.set, 1)
	assert.Equal(t, "City_Council", svc.set[0].ElectionType)

	var response map[string]map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "admin", response["data"]["source"])
}

func TestHandleSetDistrict_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   interface{}
		status int
	}{
		{"bad body", nil, "not an object", http.StatusBadRequest},
		{"precondition", &domain.PreconditionError{Operation: "set district", Missing: []string{"electionLocation"}}, SetDistrictRequest{ElectionType: "City_Council"}, http.StatusUnprocessableEntity},
		{"unknown campaign", fmt.Errorf("campaign x: %w", domain.ErrNotFound), SetDistrictRequest{ElectionType: "a", ElectionLocation: "b"}, http.StatusNotFound},
		{"store failure", errors.New("locked"), SetDistrictRequest{ElectionType: "a", ElectionLocation: "b"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&stubService{setErr: tt.err}, nil, nil), "PUT", "/p2v/camp-1/district", tt.body)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestHandleRun(t *testing.T) {
	cs := campaignMap{"camp-1": {ID: "camp-1", OfficeName: "Mayor", ElectionState: "GA"}}
	enq := &stubEnqueuer{}

	w := do(newRouter(&stubService{}, cs, enq), "POST", "/p2v/camp-1/run", nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, enq.queries, 1)
	assert.Equal(t, "camp-1", enq.queries[0].CampaignID)
	assert.Equal(t, "Mayor", enq.queries[0].OfficeName)

	var response map[string]map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "job-1", response["data"]["jobId"])
}

func TestHandleRun_Errors(t *testing.T) {
	w := do(newRouter(&stubService{}, campaignMap{}, &stubEnqueuer{}), "POST", "/p2v/missing/run", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	cs := campaignMap{"camp-1": {ID: "camp-1"}}
	w = do(newRouter(&stubService{}, cs, &stubEnqueuer{err: errors.New("nats down")}), "POST", "/p2v/camp-1/run", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
