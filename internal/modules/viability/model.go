package viability

import (
	"math"
	"strings"

	"github.com/civicgrid/victory/internal/domain"
)

// Model coefficients. The exponent is
//
//	intercept + incumbent + partisan + openSeat + level
//	+ seatsWeight*ln(min(seats,6)) + opponentsWeight*ln(min(opponents+1-seats,6))
//	+ stateBinWeight*stateBin + officeBinWeight*officeBin
//
// Both log terms floor their argument at 1.
const (
	coefIntercept    = -0.62
	coefIncumbent    = 1.74
	coefPartisan     = -0.41
	coefOpenSeat     = 0.58
	coefSeats        = 0.659
	coefOpponents    = -0.849
	coefStateBin     = -0.052
	coefOfficeBin    = 0.137
	maxLogArgument   = 6
	defaultStateBin  = 5.5
	defaultOfficeBin = 3
)

var levelCoefficients = map[domain.ElectionLevel]float64{
	domain.LevelFederal: -1.12,
	domain.LevelState:   -0.47,
	domain.LevelCounty:  0,
	domain.LevelCity:    0.21,
	domain.LevelLocal:   0.33,
}

// stateBins groups states and territories by historical challenger success.
var stateBins = map[string]float64{}

func init() {
	groups := [][]string{
		{"AL", "AR", "KY", "LA", "MS", "OK", "TN", "WV"},
		{"ID", "KS", "MT", "ND", "NE", "SD", "UT", "WY"},
		{"FL", "GA", "IA", "IN", "MO", "NC", "OH", "SC", "TX"},
		{"ME", "MI", "MN", "NH", "PA", "VT", "WI"},
		{"AK", "AZ", "CO", "HI", "NM", "NV"},
		{"CT", "DE", "MD", "NJ", "RI", "VA"},
		{"CA", "IL", "MA", "NY", "OR", "WA"},
		{"AS", "DC", "GU", "MP", "PR", "VI"},
	}
	for i, states := range groups {
		for _, s := range states {
			stateBins[s] = float64(i + 1)
		}
	}
}

// Office types in match order. The first entry whose keyword appears in the
// office name wins.
var officeTypes = []struct {
	name     string
	keywords []string
}{
	{"Congressional", []string{"congress", "u.s. house", "us house", "u.s. representative"}},
	{"Senate", []string{"senate", "senator"}},
	{"House", []string{"house", "assembly", "delegate", "representative"}},
	{"President", []string{"president"}},
	{"Governor", []string{"governor"}},
	{"Statewide", []string{"secretary of state", "attorney general", "state comptroller", "state auditor", "superintendent of public instruction", "insurance commissioner", "public service commission"}},
	{"County Supervisor", []string{"supervisor", "county commission", "county legislat", "county executive"}},
	{"Sheriff", []string{"sheriff"}},
	{"Mayor", []string{"mayor"}},
	{"City/Town Council", []string{"city council", "town council", "council", "selectboard", "village board"}},
	{"School Board", []string{"school", "board of education", "education"}},
	{"Judge", []string{"judge", "justice", "court", "magistrate"}},
	{"Alderman", []string{"alder"}},
	{"Treasurer", []string{"treasurer"}},
	{"Attorney", []string{"attorney", "prosecutor"}},
	{"Clerk", []string{"clerk"}},
}

// OtherOfficeType is returned when no keyword matches.
const OtherOfficeType = "Other"

var officeBins = map[string]float64{
	"President":         1,
	"Congressional":     1,
	"Senate":            1,
	"Governor":          1,
	"Statewide":         1,
	"House":             2,
	"Judge":             2,
	"Attorney":          2,
	"County Supervisor": 3,
	"Sheriff":           3,
	"Mayor":             3,
	"Treasurer":         3,
	"City/Town Council": 4,
	"Alderman":          4,
	"Clerk":             4,
	"School Board":      5,
}

// OfficeType classifies an office name.
func OfficeType(office string) string {
	o := strings.ToLower(office)
	for _, t := range officeTypes {
		for _, kw := range t.keywords {
			if strings.Contains(o, kw) {
				return t.name
			}
		}
	}
	return OtherOfficeType
}

// StateBin returns the bin of a state code, or the default bin.
func StateBin(state string) float64 {
	if b, ok := stateBins[strings.ToUpper(strings.TrimSpace(state))]; ok {
		return b
	}
	return defaultStateBin
}

// OfficeBin returns the bin of an office type, or the default bin.
func OfficeBin(officeType string) float64 {
	if b, ok := officeBins[officeType]; ok {
		return b
	}
	return defaultOfficeBin
}

// Factors are the race features the model consumes.
type Factors struct {
	Level       domain.ElectionLevel
	IsPartisan  bool
	IsIncumbent bool
	OpenSeat    bool
	Seats       int
	Opponents   int
	State       string
	OfficeType  string
}

// Exponent returns the linear predictor for f.
func Exponent(f Factors) float64 {
	x := coefIntercept
	if f.IsIncumbent {
		x += coefIncumbent
	}
	if f.IsPartisan {
		x += coefPartisan
	}
	if f.OpenSeat {
		x += coefOpenSeat
	}
	x += levelCoefficients[f.Level]

	seats := f.Seats
	if seats < 1 {
		seats = 1
	}
	x += coefSeats * boundedLog(seats)
	x += coefOpponents * boundedLog(f.Opponents+1-seats)
	x += coefStateBin * StateBin(f.State)
	x += coefOfficeBin * OfficeBin(f.OfficeType)
	return x
}

// Probability returns the modelled probability of winning.
func Probability(f Factors) float64 {
	return 1 / (1 + math.Exp(-Exponent(f)))
}

// Rating maps a probability onto the 1 to 5 scale.
func Rating(p float64) int {
	r := int(math.Ceil(p * 5))
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}

func boundedLog(n int) float64 {
	if n < 1 {
		n = 1
	}
	if n > maxLogArgument {
		n = maxLogArgument
	}
	return math.Log(float64(n))
}
