package voterdata

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Column categories reported by the column metadata endpoint.
const (
	CategoryElectionType = "ElectionType"
	CategoryVoteHistory  = "VoteHistory"
)

// Dimensions used for count breakdowns.
const (
	DimensionParty     = "Parties_Description"
	DimensionGender    = "Voters_Gender"
	DimensionEthnicity = "EthnicGroups_EthnicGroup1Desc"
)

// Column describes one column of a state's voter file.
type Column struct {
	ID       string `json:"id" msgpack:"id"`
	Name     string `json:"name" msgpack:"name"`
	Category string `json:"type" msgpack:"type"`
	Indexed  bool   `json:"indexed" msgpack:"indexed"`
}

// Filter restricts a query to voters whose column equals the value.
// An empty filter covers the whole state.
type Filter map[string]string

// DistrictFilter builds the filter for a resolved district.
// Returns an empty filter when either side is blank.
func DistrictFilter(column, value string) Filter {
	if column == "" || value == "" {
		return Filter{}
	}
	return Filter{column: value}
}

// CountRow is one bucket of a count breakdown.
type CountRow struct {
	Value string
	Count int
}

type columnsResponse struct {
	Columns []Column `json:"columns"`
}

type valuesResponse struct {
	Values []string `json:"values"`
}

type countRequest struct {
	Filters Filter   `json:"filters"`
	Columns []string `json:"columns,omitempty"`
}

type estimateRequest struct {
	Filters     Filter `json:"filters"`
	VoteHistory string `json:"vote_history"`
}

type estimateResponse struct {
	Results struct {
		Count json.Number `json:"count"`
	} `json:"results"`
}

// parseCountRows decodes a `[{"__COUNT": n, "<dimension>": v}]` payload.
// __COUNT arrives as a number or a numeric string depending on the endpoint.
func parseCountRows(body []byte, dimension string) ([]CountRow, error) {
	var raw []map[string]interface{}
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode count rows: %w", err)
	}

	rows := make([]CountRow, 0, len(raw))
	for _, r := range raw {
		n, err := toInt(r["__COUNT"])
		if err != nil {
			return nil, fmt.Errorf("invalid __COUNT: %w", err)
		}
		row := CountRow{Count: n}
		if v, ok := r[dimension]; ok && v != nil {
			row.Value = fmt.Sprint(v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return numberToInt(string(n))
	case string:
		if n == "" {
			return 0, nil
		}
		return numberToInt(n)
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func numberToInt(s string) (int, error) {
	if i, err := strconv.Atoi(s); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

// SumCounts totals all buckets.
func SumCounts(rows []CountRow) int {
	total := 0
	for _, r := range rows {
		total += r.Count
	}
	return total
}
