package integrations

import (
	"fmt"
	"time"
)

// MediumClient reads a user's published stories through the RSS-to-JSON
// mirror, since Medium retired its public API for reads.
type MediumClient struct {
	BaseURL string
}

func NewMediumClient() *MediumClient {
	return &MediumClient{BaseURL: "https://api.rss2json.com/v1/api.json"}
}

type MediumStory struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	PubDate     string   `json:"pubDate"`
	Categories  []string `json:"categories"`
	Description string   `json:"description"`
}

type mediumFeed struct {
	Status string        `json:"status"`
	Items  []MediumStory `json:"items"`
}

func (c *MediumClient) FetchStories(username string) ([]MediumStory, error) {
	url := fmt.Sprintf("%s?rss_url=https://medium.com/feed/@%s", c.BaseURL, username)

	var feed mediumFeed
	if err := getJSON(url, "", nil, &feed); err != nil {
		return nil, err
	}
	if feed.Status != "ok" {
		return nil, fmt.Errorf("%w: medium feed status %q", ErrExternalService, feed.Status)
	}
	return feed.Items, nil
}

// PublishedAt parses the feed's timestamp format.
func (s *MediumStory) PublishedAt() *time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s.PubDate)
	if err != nil {
		return nil
	}
	return &t
}
