package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appdock/appdock/internal/catalog"
)

func app(id, name string) catalog.AppRecord {
	return catalog.AppRecord{ID: id, Name: name}
}

func TestMatch_EmptyQuery(t *testing.T) {
	pool := []catalog.AppRecord{app("com.apple.Safari", "Safari"), app("a.b", "Anything")}
	assert.Empty(t, Match("", pool))
}

func TestMatch_Abbreviation(t *testing.T) {
	results := Match("vsc", []catalog.AppRecord{app("", "Visual Studio Code")})
	require.Len(t, results, 1)
	assert.Equal(t, ScoreAbbreviation, results[0].Score)
	assert.Equal(t, RuleAbbreviation, results[0].Rule)
	assert.Equal(t, []Range{{0, 1}, {7, 8}, {14, 15}}, results[0].Ranges)
}

func TestMatch_PrefixOnly(t *testing.T) {
	results := Match("saf", []catalog.AppRecord{app("", "Safari"), app("", "Preview")})
	require.Len(t, results, 1)
	assert.Equal(t, "Safari", results[0].Record.Name)
	assert.Equal(t, ScorePrefix, results[0].Score)
	assert.Equal(t, []Range{{0, 3}}, results[0].Ranges)
}

func TestMatch_CaseInsensitivePrefix(t *testing.T) {
	results := Match("SAF", []catalog.AppRecord{app("", "safari")})
	require.Len(t, results, 1)
	assert.Equal(t, RulePrefix, results[0].Rule)
}

func TestMatch_Substring(t *testing.T) {
	results := Match("studio", []catalog.AppRecord{app("", "Visual Studio Code")})
	require.Len(t, results, 1)
	assert.Equal(t, ScoreSubstring, results[0].Score)
	assert.Equal(t, []Range{{7, 13}}, results[0].Ranges)
}

func TestMatch_Identifier(t *testing.T) {
	results := Match("tinyspeck", []catalog.AppRecord{app("com.tinyspeck.slackmacgap", "Slack")})
	require.Len(t, results, 1)
	assert.Equal(t, ScoreIdentifier, results[0].Score)
	assert.Empty(t, results[0].Ranges)
}

func TestMatch_TypoTolerance(t *testing.T) {
	tests := []struct {
		query string
		name  string
		score float64
	}{
		{"safri", "Safari", 20},
		{"sfri", "Safari", 10},
		{"xcdoe", "Xcode", 10},
	}
	for _, tt := range tests {
		results := Match(tt.query, []catalog.AppRecord{app("", tt.name)})
		require.Len(t, results, 1, tt.query)
		assert.Equal(t, RuleTypo, results[0].Rule, tt.query)
		assert.Equal(t, tt.score, results[0].Score, tt.query)
	}

	// Too short and too long queries skip the typo rule
	assert.Empty(t, Match("sx", []catalog.AppRecord{app("", "Safari")}))
	assert.Empty(t, Match("safarixyzw", []catalog.AppRecord{app("", "Safari")}))
	// Distance above the limit
	assert.Empty(t, Match("zzzz", []catalog.AppRecord{app("", "Safari")}))
}

func TestMatch_RulePriority(t *testing.T) {
	pool := []catalog.AppRecord{
		app("org.example.typo", "Mxil"),      // typo, one substitution
		app("com.mail.client", "Postbox"),    // identifier
		app("", "My Awesome Inbox Launcher"), // abbreviation
		app("", "Apple Mail"),                // substring
		app("", "Mailspring"),                // prefix
	}
	results := Match("mail", pool)
	require.Len(t, results, 5)

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Record.Name
	}
	assert.Equal(t, []string{"Mailspring", "Apple Mail", "My Awesome Inbox Launcher", "Postbox", "Mxil"}, names)
	assert.Equal(t, []Rule{RulePrefix, RuleSubstring, RuleAbbreviation, RuleIdentifier, RuleTypo},
		[]Rule{results[0].Rule, results[1].Rule, results[2].Rule, results[3].Rule, results[4].Rule})
}

func TestMatch_ScoresNonIncreasingAndStable(t *testing.T) {
	pool := []catalog.AppRecord{
		app("1", "Notes"),
		app("2", "Numbers"),
		app("3", "Nova"),
		app("4", "Keynote"),
		app("5", "News"),
	}
	results := Match("n", pool)
	require.Len(t, results, 5)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	var ids []string
	for _, r := range results {
		ids = append(ids, r.Record.ID)
	}
	assert.Equal(t, []string{"1", "2", "3", "5", "4"}, ids, "ties keep pool order")
}

func TestMatch_DoesNotMutatePool(t *testing.T) {
	pool := []catalog.AppRecord{app("b", "Beta"), app("a", "Alpha")}
	snapshot := append([]catalog.AppRecord(nil), pool...)
	_ = Match("a", pool)
	assert.Equal(t, snapshot, pool)
}

func TestMatch_RuneOffsets(t *testing.T) {
	results := Match("café", []catalog.AppRecord{app("", "Le Café Bleu")})
	require.Len(t, results, 1)
	assert.Equal(t, []Range{{3, 7}}, results[0].Ranges)
}

func TestMatcher_MaxResults(t *testing.T) {
	pool := []catalog.AppRecord{app("", "Aa"), app("", "Ab"), app("", "Ac")}
	results := Matcher{MaxResults: 2}.Match("a", pool)
	assert.Len(t, results, 2)
}

func TestAbbreviation_NeedsEnoughWords(t *testing.T) {
	_, ok := abbreviation([]rune("vscx"), []rune("Visual Studio Code"))
	assert.False(t, ok)

	ranges, ok := abbreviation([]rune("vs"), []rune("  Visual   Studio Code"))
	require.True(t, ok)
	assert.Equal(t, []Range{{2, 3}, {11, 12}}, ranges)
}
