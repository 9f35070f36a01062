package testing

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/civicgrid/victory/internal/clients/voterdata"
	"github.com/civicgrid/victory/internal/domain"
)

// FakeVoterData is an in-memory voter-file API.
// Totals and breakdowns are keyed by FilterKey of the request filter.
type FakeVoterData struct {
	mu sync.Mutex

	ColumnsByState map[string][]voterdata.Column
	Values         map[string][]string                       // column -> values
	Totals         map[string]int                            // filter key -> total
	Breakdowns     map[string]map[string][]voterdata.CountRow // dimension -> filter key -> rows
	Turnout        map[string]int                            // vote-history column -> count
	Errors         map[string]error                          // endpoint or "estimate:<column>" -> error

	Calls []string
}

// NewFakeVoterData creates an empty fake.
func NewFakeVoterData() *FakeVoterData {
	return &FakeVoterData{
		ColumnsByState: map[string][]voterdata.Column{},
		Values:         map[string][]string{},
		Totals:         map[string]int{},
		Breakdowns:     map[string]map[string][]voterdata.CountRow{},
		Turnout:        map[string]int{},
		Errors:         map[string]error{},
	}
}

// FilterKey renders a filter as "col=value" pairs sorted by column.
func FilterKey(f voterdata.Filter) string {
	keys := make([]string, 0, len(f))
	for k, v := range f {
		keys = append(keys, k+"="+v)
	}
	sort.Strings(keys)
	return strings.Join(keys, "&")
}

// SetBreakdown registers the rows returned for a dimension and filter.
func (f *FakeVoterData) SetBreakdown(dimension string, filter voterdata.Filter, rows []voterdata.CountRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Breakdowns[dimension] == nil {
		f.Breakdowns[dimension] = map[string][]voterdata.CountRow{}
	}
	f.Breakdowns[dimension][FilterKey(filter)] = rows
}

// CallCount returns how many recorded calls start with prefix.
func (f *FakeVoterData) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func (f *FakeVoterData) record(call string) {
	f.Calls = append(f.Calls, call)
}

// Columns implements voterdata.API.
func (f *FakeVoterData) Columns(ctx context.Context, state string) ([]voterdata.Column, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("columns:" + state)
	if err := f.Errors[voterdata.EndpointColumns]; err != nil {
		return nil, err
	}
	return f.ColumnsByState[state], nil
}

// ColumnValues implements voterdata.API.
func (f *FakeVoterData) ColumnValues(ctx context.Context, state, column string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("values:" + column)
	if err := f.Errors[voterdata.EndpointValues]; err != nil {
		return nil, err
	}
	return f.Values[column], nil
}

// Counts implements voterdata.API. Without a registered party breakdown the
// whole total is reported as one bucket.
func (f *FakeVoterData) Counts(ctx context.Context, state string, filter voterdata.Filter, dimension string) ([]voterdata.CountRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := FilterKey(filter)
	f.record(fmt.Sprintf("counts:%s:%s", dimension, key))
	if err := f.Errors[voterdata.EndpointCounts]; err != nil {
		return nil, err
	}

	if rows, ok := f.Breakdowns[dimension][key]; ok {
		return rows, nil
	}
	total := f.Totals[key]
	switch dimension {
	case "":
		return []voterdata.CountRow{{Count: total}}, nil
	case voterdata.DimensionParty:
		if total == 0 {
			return nil, nil
		}
		return []voterdata.CountRow{{Value: "Non-Partisan", Count: total}}, nil
	default:
		return nil, nil
	}
}

// TurnoutEstimate implements voterdata.API.
func (f *FakeVoterData) TurnoutEstimate(ctx context.Context, state string, filter voterdata.Filter, voteHistoryColumn string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("estimate:" + voteHistoryColumn)
	if err := f.Errors["estimate:"+voteHistoryColumn]; err != nil {
		return 0, err
	}
	if err := f.Errors[voterdata.EndpointEstimate]; err != nil {
		return 0, err
	}
	return f.Turnout[voteHistoryColumn], nil
}

// StubLabelMatcher answers from a fixed table keyed by the first offered label.
// Unknown sets return Err, or domain.ErrNoMatch when Err is nil.
type StubLabelMatcher struct {
	mu      sync.Mutex
	Answers map[string]string
	Err     error
	Calls   int
}

// Match returns Answers[labels[0]] when it is present in labels.
func (s *StubLabelMatcher) Match(ctx context.Context, query string, labels []string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls++
	if len(labels) > 0 {
		if answer, ok := s.Answers[labels[0]]; ok {
			for _, l := range labels {
				if l == answer {
					return answer, nil
				}
			}
		}
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", domain.ErrNoMatch
}
