package labelmatch

import (
	"strings"
	"unicode"
)

// categoryRule maps office-name keywords to a category and the words that
// identify that category in voter-file labels.
type categoryRule struct {
	category    string
	keywords    []string
	labelTokens []string
}

// categoryRules are checked in order; the first hit wins.
var categoryRules = []categoryRule{
	{"Judicial", []string{"judge", "judicial", "court", "justice of the peace"}, []string{"judicial", "court"}},
	{"College", []string{"community college", "college"}, []string{"college"}},
	{"Education", []string{"school", "education"}, []string{"school", "education", "unified"}},
	{"Water", []string{"water", "irrigation", "reclamation"}, []string{"water", "irrigation", "reclamation"}},
	{"Fire", []string{"fire"}, []string{"fire"}},
	{"Hospital", []string{"hospital", "health care", "healthcare"}, []string{"hospital", "health"}},
	{"Park", []string{"park", "recreation"}, []string{"park", "recreation"}},
	{"Library", []string{"library"}, []string{"library"}},
	{"Sanitary", []string{"sanitation", "sewer", "sanitary"}, []string{"sanitary", "sanitation", "sewer"}},
	{"Transit", []string{"transit", "transportation"}, []string{"transit", "transportation"}},
	{"Conservation", []string{"soil", "conservation"}, []string{"conservation", "soil"}},
	{"Airport", []string{"airport"}, []string{"airport"}},
	{"Port", []string{"port commission", "port district", "harbor"}, []string{"port", "harbor"}},
	{"Utility", []string{"utility", "utilities", "public power", "electric"}, []string{"utility", "utilities", "power", "electric"}},
	{"Cemetery", []string{"cemetery"}, []string{"cemetery"}},
	{"Vector", []string{"mosquito", "vector"}, []string{"mosquito", "vector"}},
}

// InferCategory returns the category for an office name, or "".
func InferCategory(officeName string) string {
	name := strings.ToLower(officeName)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.category
			}
		}
	}
	return ""
}

// FilterByCategory returns the labels containing one of the category's
// words. Underscores count as word breaks. Order is preserved.
func FilterByCategory(category string, labels []string) []string {
	var tokens []string
	for _, rule := range categoryRules {
		if rule.category == category {
			tokens = rule.labelTokens
			break
		}
	}
	if len(tokens) == 0 {
		return nil
	}

	var out []string
	for _, l := range labels {
		if hasWord(normalize(l), tokens) {
			out = append(out, l)
		}
	}
	return out
}

// genericWords never identify a jurisdiction on their own.
var genericWords = map[string]bool{
	"the": true, "of": true, "and": true, "for": true,
	"board": true, "trustee": true, "trustees": true, "member": true, "director": true, "directors": true,
	"seat": true, "area": true, "district": true, "division": true, "zone": true, "ward": true,
	"city": true, "county": true, "town": true, "village": true, "council": true, "commission": true,
	"commissioner": true, "position": true, "office": true, "general": true, "special": true,
}

// sharesDistinguishingToken reports whether label contains a query word
// that is neither generic nor one of the category's own words. Words
// shorter than three letters are ignored.
func sharesDistinguishingToken(query, category, label string) bool {
	skip := map[string]bool{}
	for _, rule := range categoryRules {
		if rule.category != category {
			continue
		}
		for _, w := range append(append([]string{}, rule.keywords...), rule.labelTokens...) {
			for _, f := range strings.Fields(w) {
				skip[f] = true
			}
		}
	}

	labelWords := map[string]bool{}
	for _, w := range words(label) {
		labelWords[w] = true
	}
	for _, w := range words(query) {
		if len(w) < 3 || genericWords[w] || skip[w] {
			continue
		}
		if labelWords[w] {
			return true
		}
	}
	return false
}

// words lowercases s and splits it on anything that is not a letter or digit.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func hasWord(s string, tokens []string) bool {
	for _, w := range strings.Fields(s) {
		for _, t := range tokens {
			if w == t {
				return true
			}
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}
