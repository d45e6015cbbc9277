package sentiment

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Keywords holds the bullish and bearish phrase lists.
type Keywords struct {
	Bullish []string `yaml:"bullish"`
	Bearish []string `yaml:"bearish"`
}

// DefaultKeywords is used when no keyword file is configured.
var DefaultKeywords = Keywords{
	Bullish: []string{
		"beat", "profit", "growth", "jump", "surge", "soar", "rally",
		"record high", "upgrade", "strong", "outperform", "bullish",
		"buyback", "raises guidance", "expands",
	},
	Bearish: []string{
		"miss", "loss", "decline", "drop", "fall", "plunge", "slump",
		"downgrade", "weak", "underperform", "bearish", "lawsuit",
		"layoff", "recall", "cuts guidance", "probe",
	},
}

// LoadKeywords reads a YAML file with `bullish` and `bearish` lists. A list
// left out of the file keeps its default.
func LoadKeywords(path string) (Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keywords{}, err
	}
	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return Keywords{}, fmt.Errorf("parse keywords %s: %w", path, err)
	}
	if len(kw.Bullish) == 0 {
		kw.Bullish = DefaultKeywords.Bullish
	}
	if len(kw.Bearish) == 0 {
		kw.Bearish = DefaultKeywords.Bearish
	}
	return kw, nil
}
