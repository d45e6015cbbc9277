package market

import (
	"time"

	"finboard/internal/sentiment"
)

type SearchResult struct {
	Symbol        string `json:"symbol"`
	DisplaySymbol string `json:"displaySymbol"`
	Description   string `json:"description"`
}

type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	Source      string    `json:"source"`
	Time        string    `json:"time"`
	PublishedAt time.Time `json:"publishedAt"`
	Important   bool      `json:"important"`
	URL         string    `json:"url,omitempty"`
}

func (n NewsItem) SentimentItem() sentiment.Item {
	return sentiment.Item{Headline: n.Title, Summary: n.Summary}
}

// SentimentItems converts fetched news into scorer input.
func SentimentItems(news []NewsItem) []sentiment.Item {
	items := make([]sentiment.Item, len(news))
	for i, n := range news {
		items[i] = n.SentimentItem()
	}
	return items
}

// Placeholder news items returned instead of upstream errors.
func missingKeyNews() []NewsItem {
	return []NewsItem{{Title: "API Key Missing", Source: "System", Time: "Now", Important: true}}
}

func unavailableNews() []NewsItem {
	return []NewsItem{{Title: "No news found or API limit reached", Source: "System", Time: "Now"}}
}

// finnhubNews is the wire shape of /news and /company-news entries.
type finnhubNews struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

type finnhubSearch struct {
	Count  int `json:"count"`
	Result []struct {
		Description   string `json:"description"`
		DisplaySymbol string `json:"displaySymbol"`
		Symbol        string `json:"symbol"`
		Type          string `json:"type"`
	} `json:"result"`
}
