package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const naverAPIBaseURL = "https://openapi.naver.com/v1/search/news.json"

// DefaultDisplay is the number of results requested per keyword when
// the configuration does not say otherwise.
const DefaultDisplay = 10

// NaverClient fetches news search results from the Naver Search API.
type NaverClient struct {
	clientID     string
	clientSecret string
	client       *http.Client
	baseURL      string
}

// NewNaverClient creates a client with the given credentials and
// per-call timeout.
func NewNaverClient(clientID, clientSecret string, timeout time.Duration) *NaverClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &NaverClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       &http.Client{Timeout: timeout},
		baseURL:      naverAPIBaseURL,
	}
}

// IsConfigured returns whether both credentials are available.
func (c *NaverClient) IsConfigured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// Search fetches up to display news items matching the keyword, newest
// first. Every returned item carries the keyword that produced it.
func (c *NaverClient) Search(ctx context.Context, keyword string, display int) ([]Item, error) {
	if display <= 0 {
		display = DefaultDisplay
	}
	if display > 100 {
		display = 100
	}

	params := url.Values{
		"query":   {keyword},
		"display": {fmt.Sprintf("%d", display)},
		"sort":    {"date"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.clientSecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("naver request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("naver HTTP status %d", resp.StatusCode)
	}

	var result struct {
		Items []struct {
			Title        string `json:"title"`
			OriginalLink string `json:"originallink"`
			Link         string `json:"link"`
			Description  string `json:"description"`
			PubDate      string `json:"pubDate"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding naver response: %w", err)
	}

	items := make([]Item, 0, len(result.Items))
	for _, raw := range result.Items {
		link := raw.Link
		if link == "" {
			link = raw.OriginalLink
		}
		if link == "" || strings.TrimSpace(raw.Title) == "" {
			continue
		}

		items = append(items, Item{
			Link:        link,
			Title:       raw.Title,
			Description: raw.Description,
			PublishedAt: parsePubDate(raw.PubDate),
			Keyword:     keyword,
		})
	}

	return items, nil
}

// parsePubDate parses Naver's RFC 1123 pubDate with a numeric zone
// ("Fri, 09 Jan 2026 07:26:38 +0900"). Returns the zero time when the
// field is absent or malformed; such items sort as unordered.
func parsePubDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC1123Z, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
