package sentiment

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func headlines(hs ...string) []Item {
	items := make([]Item, len(hs))
	for i, h := range hs {
		items[i] = Item{Headline: h}
	}
	return items
}

func TestScoreEmptyIsNoData(t *testing.T) {
	s := MustScorer(DefaultKeywords)
	v := s.Score(nil)
	require.Equal(t, NoData, v.Label)
	require.NotEqual(t, Neutral, v.Label)
	require.Equal(t, 0, v.Score)
	require.Equal(t, 0, v.Items)

	require.Equal(t, NoData, s.Score([]Item{}).Label)
}

func TestScoreExampleHeadlines(t *testing.T) {
	s := MustScorer(Keywords{Bullish: DefaultKeywords.Bullish})
	v := s.Score(headlines("Company beats profit expectations", "Stock jumps on strong growth"))
	require.Equal(t, StronglyBullish, v.Label)
	require.Equal(t, 2, v.Score)
	require.Equal(t, 2, v.Bullish)

	withDefaults := MustScorer(DefaultKeywords)
	require.Equal(t, StronglyBullish, withDefaults.Score(headlines("Company beats profit expectations", "Stock jumps on strong growth")).Label)
}

func TestScoreThresholds(t *testing.T) {
	s := MustScorer(Keywords{Bullish: []string{"up"}, Bearish: []string{"down"}})
	tests := []struct {
		name  string
		items []Item
		want  Label
		score int
	}{
		{"three up", headlines("up", "up", "up"), StronglyBullish, 3},
		{"two up", headlines("up", "up"), StronglyBullish, 2},
		{"one up", headlines("up", "flat"), Bullish, 1},
		{"mixed", headlines("up", "down"), Neutral, 0},
		{"no keywords", headlines("flat"), Neutral, 0},
		{"one down", headlines("down"), Bearish, -1},
		{"two down", headlines("down", "down", "flat"), StronglyBearish, -2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := s.Score(tc.items)
			require.Equal(t, tc.want, v.Label)
			require.Equal(t, tc.score, v.Score)
		})
	}
}

func TestClassifyTieBreak(t *testing.T) {
	s := MustScorer(Keywords{
		Bullish: []string{"beat", "growth"},
		Bearish: []string{"lawsuit", "recall"},
	})
	require.Equal(t, 1, s.Classify(Item{Headline: "Results beat estimates"}))
	require.Equal(t, -1, s.Classify(Item{Headline: "Carmaker faces recall"}))
	// One hit each way is a tie.
	require.Equal(t, 0, s.Classify(Item{Headline: "Growth slows amid lawsuit"}))
	// Two bullish against one bearish wins.
	require.Equal(t, 1, s.Classify(Item{Headline: "Growth returns", Summary: "Sales beat forecasts despite lawsuit"}))
	// A keyword repeated counts once.
	require.Equal(t, 0, s.Classify(Item{Headline: "beat beat beat", Summary: "lawsuit"}))
}

func TestClassifyIsCaseInsensitiveAndUsesSummary(t *testing.T) {
	s := MustScorer(Keywords{Bullish: []string{"Surge"}, Bearish: []string{"PLUNGE"}})
	require.Equal(t, 1, s.Classify(Item{Headline: "SHARES SURGE"}))
	require.Equal(t, -1, s.Classify(Item{Headline: "Markets today", Summary: "Oil prices plunge"}))
}

func TestScoreBullishOnlyIsAtLeastBullish(t *testing.T) {
	s := MustScorer(DefaultKeywords)
	pool := []string{
		"Shares surge after upgrade",
		"Record high for chipmaker",
		"Retailer posts strong quarter",
		"Bank announces buyback",
		"Profit climbs on cloud growth",
	}
	r := rand.New(rand.NewSource(7))
	for n := 1; n <= 20; n++ {
		hs := make([]string, n)
		for i := range hs {
			hs[i] = pool[r.Intn(len(pool))]
		}
		v := s.Score(headlines(hs...))
		require.GreaterOrEqual(t, v.Label.Rank(), Bullish.Rank(), "headlines %v", hs)
	}
}

func TestScoreIsOrderIndependent(t *testing.T) {
	s := MustScorer(DefaultKeywords)
	items := headlines(
		"Company beats profit expectations",
		"Regulator opens probe into lender",
		"Stock jumps on strong growth",
		"Automaker announces recall",
		"Quiet session on Wall Street",
		"Chipmaker shares plunge on weak outlook",
	)
	want := s.Score(items)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		shuffled := append([]Item(nil), items...)
		r.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		require.Equal(t, want, s.Score(shuffled))
	}
}

func TestNewScorerRejectsOverlap(t *testing.T) {
	_, err := NewScorer(Keywords{Bullish: []string{"Rally"}, Bearish: []string{" rally "}})
	require.ErrorIs(t, err, ErrOverlappingKeywords)
}

func TestDefaultKeywordsAreDisjoint(t *testing.T) {
	_, err := NewScorer(DefaultKeywords)
	require.NoError(t, err)
}

func TestLoadKeywords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bullish:\n  - moon\n  - rocket\n"), 0o644))

	kw, err := LoadKeywords(path)
	require.NoError(t, err)
	require.Equal(t, []string{"moon", "rocket"}, kw.Bullish)
	require.Equal(t, DefaultKeywords.Bearish, kw.Bearish)

	_, err = LoadKeywords(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("bullish: [unterminated"), 0o644))
	_, err = LoadKeywords(bad)
	require.Error(t, err)
}
