// Package sentiment labels a batch of news items as bullish or bearish using
// fixed keyword lists. There are no learned parameters.
package sentiment

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Label is one point on the five-step sentiment scale.
type Label string

const (
	StronglyBearish Label = "strongly-bearish"
	Bearish         Label = "bearish"
	Neutral         Label = "neutral"
	Bullish         Label = "bullish"
	StronglyBullish Label = "strongly-bullish"
	// NoData is returned for empty input. It ranks like Neutral but is a
	// different value so callers can tell "nothing to score" from "mixed".
	NoData Label = "no-data"
)

// Rank orders labels from -2 (strongly bearish) to 2 (strongly bullish).
func (l Label) Rank() int {
	switch l {
	case StronglyBearish:
		return -2
	case Bearish:
		return -1
	case Bullish:
		return 1
	case StronglyBullish:
		return 2
	}
	return 0
}

func labelFor(score int) Label {
	switch {
	case score >= 2:
		return StronglyBullish
	case score == 1:
		return Bullish
	case score == 0:
		return Neutral
	case score == -1:
		return Bearish
	}
	return StronglyBearish
}

// Item is the text the scorer looks at.
type Item struct {
	Headline string
	Summary  string
}

// Verdict is the outcome of scoring one batch of items.
type Verdict struct {
	Label Label `json:"label"`
	Score int   `json:"score"`
	Items int   `json:"items"`
	// Bullish and Bearish count items classified each way.
	Bullish int `json:"bullish"`
	Bearish int `json:"bearish"`
}

var ErrOverlappingKeywords = errors.New("sentiment: bullish and bearish keywords overlap")

// Scorer classifies items against two disjoint keyword lists. It is safe
// for concurrent use.
type Scorer struct {
	bullish []string
	bearish []string
}

// NewScorer lower-cases and de-duplicates both lists. The lists must be
// disjoint.
func NewScorer(kw Keywords) (*Scorer, error) {
	bull := normalize(kw.Bullish)
	bear := normalize(kw.Bearish)

	seen := make(map[string]struct{}, len(bull))
	for _, w := range bull {
		seen[w] = struct{}{}
	}
	for _, w := range bear {
		if _, ok := seen[w]; ok {
			return nil, fmt.Errorf("%w: %q", ErrOverlappingKeywords, w)
		}
	}
	return &Scorer{bullish: bull, bearish: bear}, nil
}

// MustScorer is NewScorer for keyword lists known at compile time.
func MustScorer(kw Keywords) *Scorer {
	s, err := NewScorer(kw)
	if err != nil {
		panic(err)
	}
	return s
}

func normalize(words []string) []string {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// Classify returns +1, -1 or 0 for a single item. An item counts only when
// its distinct bullish hits strictly outnumber its bearish hits, or the
// reverse.
func (s *Scorer) Classify(it Item) int {
	text := strings.ToLower(it.Headline + " " + it.Summary)
	bull := hits(text, s.bullish)
	bear := hits(text, s.bearish)
	switch {
	case bull > bear:
		return 1
	case bear > bull:
		return -1
	}
	return 0
}

func hits(text string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// Score sums per-item contributions and maps the total onto a label.
func (s *Scorer) Score(items []Item) Verdict {
	if len(items) == 0 {
		return Verdict{Label: NoData}
	}
	v := Verdict{Items: len(items)}
	for _, it := range items {
		switch s.Classify(it) {
		case 1:
			v.Bullish++
			v.Score++
		case -1:
			v.Bearish++
			v.Score--
		}
	}
	v.Label = labelFor(v.Score)
	return v
}
