package district

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/civicgrid/victory/internal/clients/voterdata"
	"github.com/civicgrid/victory/internal/domain"
	testingpkg "github.com/civicgrid/victory/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	council1 = "GA##ATLANTA CITY CNCL 1"
	council2 = "GA##ATLANTA CITY CNCL 2"
	ward3    = "GA##ATLANTA WARD 3"
)

func cityCouncilQuery() domain.RaceQuery {
	return domain.RaceQuery{
		CampaignID:           "camp-1",
		OfficeName:           "City Council",
		ElectionLevel:        domain.LevelCity,
		ElectionState:        "GA",
		ElectionMunicipality: "Atlanta",
		ElectionDate:         "2025-11-03",
	}
}

func gaFixture() (*testingpkg.FakeVoterData, *testingpkg.StubLabelMatcher) {
	fake := testingpkg.NewFakeVoterData()
	fake.ColumnsByState["GA"] = []voterdata.Column{
		{ID: "City_Council", Category: voterdata.CategoryElectionType},
		{ID: "City_Ward", Category: voterdata.CategoryElectionType},
		{ID: "City", Category: voterdata.CategoryElectionType},
		{ID: "General_2024_11_05", Category: voterdata.CategoryVoteHistory, Indexed: true},
	}
	fake.Values["City_Council"] = []string{"", council1, council2}
	fake.Values["City_Ward"] = []string{ward3}
	fake.Values["City"] = []string{"ATLANTA"}

	labels := &testingpkg.StubLabelMatcher{Answers: map[string]string{
		council1: council1,
		ward3:    ward3,
	}}
	return fake, labels
}

func TestResolve_FirstColumnWithVoters(t *testing.T) {
	fake, labels := gaFixture()
	fake.Totals["City_Council="+council1] = 5000

	m := NewMatcher(labels, fake, zerolog.Nop())
	match, err := m.Resolve(context.Background(), cityCouncilQuery())
	require.NoError(t, err)

	assert.Equal(t, domain.DistrictMatch{ElectionType: "City_Council", ElectionLocation: council1}, match)
	assert.Equal(t, 1, fake.CallCount("counts:"))
}

func TestResolve_SkipsValueWithoutVoters(t *testing.T) {
	fake, labels := gaFixture()
	fake.Totals["City_Ward="+ward3] = 2000

	m := NewMatcher(labels, fake, zerolog.Nop())
	match, err := m.Resolve(context.Background(), cityCouncilQuery())
	require.NoError(t, err)

	assert.Equal(t, "City_Ward", match.ElectionType)
	assert.Equal(t, ward3, match.ElectionLocation)
}

func TestResolve_NoVotersAnywhereIsEmptyMatch(t *testing.T) {
	fake, labels := gaFixture()

	m := NewMatcher(labels, fake, zerolog.Nop())
	match, err := m.Resolve(context.Background(), cityCouncilQuery())
	require.NoError(t, err)
	assert.True(t, match.IsEmpty())
	assert.Equal(t, "", match.ElectionType)
	assert.Equal(t, "", match.ElectionLocation)
}

func TestResolve_StatewideRacesSkipLookup(t *testing.T) {
	tests := []domain.RaceQuery{
		{OfficeName: "U.S. Senate", ElectionLevel: domain.LevelFederal, ElectionState: "GA"},
		{OfficeName: "President of the United States", ElectionLevel: domain.LevelFederal, ElectionState: "GA"},
		{OfficeName: "Governor", ElectionLevel: domain.LevelState, ElectionState: "GA"},
		{OfficeName: "State Board of Education At-Large", ElectionLevel: domain.LevelState, ElectionState: "GA"},
	}

	for _, q := range tests {
		t.Run(q.OfficeName, func(t *testing.T) {
			fake, labels := gaFixture()
			m := NewMatcher(labels, fake, zerolog.Nop())

			match, err := m.Resolve(context.Background(), q)
			require.NoError(t, err)
			assert.True(t, match.IsEmpty())
			assert.Empty(t, fake.Calls)
		})
	}
}

func TestUsesNoDistrict_StateSenateIsDistricted(t *testing.T) {
	assert.False(t, UsesNoDistrict(domain.RaceQuery{OfficeName: "State Senate District 14", ElectionLevel: domain.LevelState}))
	assert.False(t, UsesNoDistrict(domain.RaceQuery{OfficeName: "Mayor", ElectionLevel: domain.LevelCity}))
}

func TestResolve_AttemptCap(t *testing.T) {
	fake := testingpkg.NewFakeVoterData()
	answers := map[string]string{}
	for i := 0; i < 15; i++ {
		col := fmt.Sprintf("Water_District_%02d", i)
		val := fmt.Sprintf("GA##WATER %02d", i)
		fake.ColumnsByState["GA"] = append(fake.ColumnsByState["GA"], voterdata.Column{ID: col, Category: voterdata.CategoryElectionType})
		fake.Values[col] = []string{val}
		answers[val] = val
	}

	m := NewMatcher(&testingpkg.StubLabelMatcher{Answers: answers}, fake, zerolog.Nop())
	match, err := m.Resolve(context.Background(), domain.RaceQuery{
		OfficeName:    "Water District Director",
		ElectionLevel: domain.LevelLocal,
		ElectionState: "GA",
	})
	require.NoError(t, err)
	assert.True(t, match.IsEmpty())
	assert.Equal(t, MaxAttempts, fake.CallCount("counts:"))
}

func TestResolve_UpstreamFailureSurfaces(t *testing.T) {
	fake, labels := gaFixture()
	fake.Errors[voterdata.EndpointValues] = domain.NewUpstreamError("voterdata", "values", 503, errors.New("unavailable"))

	m := NewMatcher(labels, fake, zerolog.Nop())
	_, err := m.Resolve(context.Background(), cityCouncilQuery())
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
}

func TestResolve_ColumnsFailure(t *testing.T) {
	fake, labels := gaFixture()
	fake.Errors[voterdata.EndpointColumns] = domain.NewUpstreamError("voterdata", "columns", 0, errors.New("timeout"))

	m := NewMatcher(labels, fake, zerolog.Nop())
	_, err := m.Resolve(context.Background(), cityCouncilQuery())
	require.Error(t, err)
	assert.True(t, domain.IsUpstream(err))
}

func TestCandidateColumns_Ordering(t *testing.T) {
	fake := testingpkg.NewFakeVoterData()
	for _, id := range []string{"County", "County_Commissioner_District", "County_Supervisorial_District", "School_Board_District"} {
		fake.ColumnsByState["FL"] = append(fake.ColumnsByState["FL"], voterdata.Column{ID: id, Category: voterdata.CategoryElectionType})
	}
	m := NewMatcher(&testingpkg.StubLabelMatcher{}, fake, zerolog.Nop())

	cols, err := m.candidateColumns(context.Background(), domain.RaceQuery{
		OfficeName:    "County Commission",
		ElectionLevel: domain.LevelCounty,
		ElectionState: "FL",
		SubAreaName:   "Commission District",
		SubAreaValue:  "4",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"County_Commissioner_District", "County_Supervisorial_District", "County"}, cols)

	cols, err = m.candidateColumns(context.Background(), domain.RaceQuery{
		OfficeName:    "School Board Member",
		ElectionLevel: domain.LevelCounty,
		ElectionState: "FL",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"School_Board_District", "County"}, cols)
}

func TestCandidateColumns_UncategorisedOfficeAsksLabelMatcher(t *testing.T) {
	fake := testingpkg.NewFakeVoterData()
	for _, id := range []string{"Community_Services_District", "City"} {
		fake.ColumnsByState["CA"] = append(fake.ColumnsByState["CA"], voterdata.Column{ID: id, Category: voterdata.CategoryElectionType})
	}
	labels := &testingpkg.StubLabelMatcher{Answers: map[string]string{
		"Community_Services_District": "Community_Services_District",
	}}
	m := NewMatcher(labels, fake, zerolog.Nop())

	cols, err := m.candidateColumns(context.Background(), domain.RaceQuery{
		OfficeName:    "Community Services District Director",
		ElectionLevel: domain.LevelLocal,
		ElectionState: "CA",
	})
	require.NoError(t, err)
	assert.Equal(t, "Community_Services_District", cols[0])
	assert.Contains(t, cols, "City")
	assert.Equal(t, 1, labels.Calls)
}

func TestSearchString(t *testing.T) {
	q := domain.RaceQuery{
		OfficeName:           "City Council",
		ElectionState:        "ca",
		ElectionCounty:       "Orange",
		ElectionMunicipality: "San Clemente",
		SubAreaName:          "District",
		SubAreaValue:         "1",
	}
	assert.Equal(t, "City Council District 1 Orange San Clemente CA", searchString(q))
}
