// Package search ranks apps against a typed query.
package search

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/appdock/appdock/internal/catalog"
	"github.com/appdock/appdock/internal/logging"
)

var searchLog = logging.ForComponent(logging.CompSearch)

// Scores assigned by each rule.
const (
	ScorePrefix        = 100.0
	ScoreSubstring     = 80.0
	ScoreStartBonus    = 20.0
	ScoreAbbreviation  = 60.0
	ScoreIdentifier    = 40.0
	ScoreTypoBase      = 30.0
	ScoreTypoPerEdit   = 10.0
	MaxTypoDistance    = 2
	MinTypoQueryLength = 3
	MaxTypoQueryLength = 8
)

// Rule names the scoring rule that accepted a candidate.
type Rule string

const (
	RulePrefix       Rule = "prefix"
	RuleSubstring    Rule = "substring"
	RuleAbbreviation Rule = "abbreviation"
	RuleIdentifier   Rule = "identifier"
	RuleTypo         Rule = "typo"
)

// Range is a half-open span of rune offsets into the display name.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Result is one ranked candidate.
type Result struct {
	Record catalog.AppRecord `json:"app"`
	Score  float64           `json:"score"`
	Ranges []Range           `json:"ranges,omitempty"`
	Rule   Rule              `json:"rule"`
}

// unitCosts is plain edit distance. levenshtein.DefaultOptions charges 2 for
// a substitution, which would let fewer typos through.
var unitCosts = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Matcher scores candidates. The zero value is ready to use.
type Matcher struct {
	// MaxResults truncates the ranked list when positive.
	MaxResults int
}

// Match is Matcher{}.Match.
func Match(query string, pool []catalog.AppRecord) []Result {
	return Matcher{}.Match(query, pool)
}

// Match returns the candidates from pool accepted by some rule, highest score
// first. Equal scores keep pool order. An empty query matches nothing. The
// pool is not modified.
func (m Matcher) Match(query string, pool []catalog.AppRecord) []Result {
	if query == "" {
		return nil
	}
	q := lowerRunes(query)

	var results []Result
	for _, r := range pool {
		if res, ok := score(q, r); ok {
			results = append(results, res)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if m.MaxResults > 0 && len(results) > m.MaxResults {
		results = results[:m.MaxResults]
	}

	searchLog.Debug("matched",
		slog.Int("query_len", len(q)),
		slog.Int("pool", len(pool)),
		slog.Int("results", len(results)),
	)
	return results
}

func score(q []rune, r catalog.AppRecord) (Result, bool) {
	name := lowerRunes(r.Name)

	if hasPrefix(name, q) {
		return Result{
			Record: r,
			Score:  ScorePrefix,
			Ranges: []Range{{Start: 0, End: len(q)}},
			Rule:   RulePrefix,
		}, true
	}

	if at := index(name, q); at >= 0 {
		s := ScoreSubstring
		if at == 0 {
			s += ScoreStartBonus
		}
		return Result{
			Record: r,
			Score:  s,
			Ranges: []Range{{Start: at, End: at + len(q)}},
			Rule:   RuleSubstring,
		}, true
	}

	if ranges, ok := abbreviation(q, []rune(r.Name)); ok {
		return Result{Record: r, Score: ScoreAbbreviation, Ranges: ranges, Rule: RuleAbbreviation}, true
	}

	if strings.Contains(strings.ToLower(r.ID), string(q)) {
		return Result{Record: r, Score: ScoreIdentifier, Rule: RuleIdentifier}, true
	}

	if len(q) >= MinTypoQueryLength && len(q) <= MaxTypoQueryLength {
		window := name
		if len(window) > len(q)+2 {
			window = window[:len(q)+2]
		}
		d := levenshtein.DistanceForStrings(q, window, unitCosts)
		if d <= MaxTypoDistance {
			return Result{Record: r, Score: ScoreTypoBase - ScoreTypoPerEdit*float64(d), Rule: RuleTypo}, true
		}
	}

	return Result{}, false
}

// abbreviation matches q against the initials of the first len(q)
// space-separated words of name.
func abbreviation(q, name []rune) ([]Range, bool) {
	type word struct{ start int }
	var words []word
	inWord := false
	for i, c := range name {
		if c == ' ' {
			inWord = false
			continue
		}
		if !inWord {
			words = append(words, word{start: i})
			inWord = true
		}
	}
	if len(words) < len(q) {
		return nil, false
	}

	ranges := make([]Range, 0, len(q))
	for i, qc := range q {
		start := words[i].start
		if unicode.ToLower(name[start]) != qc {
			return nil, false
		}
		ranges = append(ranges, Range{Start: start, End: start + 1})
	}
	return ranges, len(ranges) > 0
}

// lowerRunes lowercases rune by rune so offsets line up with the input name.
func lowerRunes(s string) []rune {
	out := []rune(s)
	for i, c := range out {
		out[i] = unicode.ToLower(c)
	}
	return out
}

func hasPrefix(s, prefix []rune) bool {
	if len(prefix) > len(s) {
		return false
	}
	for i := range prefix {
		if s[i] != prefix[i] {
			return false
		}
	}
	return true
}

func index(s, sub []rune) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if hasPrefix(s[i:], sub) {
			return i
		}
	}
	return -1
}
