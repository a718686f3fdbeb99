package integrations

import "fmt"

// DribbbleClient lists the authenticated user's shots.
type DribbbleClient struct {
	BaseURL string
}

func NewDribbbleClient() *DribbbleClient {
	return &DribbbleClient{BaseURL: "https://api.dribbble.com/v2"}
}

type DribbbleShot struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	HTMLURL string `json:"html_url"`
	Images  struct {
		Normal string `json:"normal"`
		HiDPI  string `json:"hidpi"`
	} `json:"images"`
}

func (c *DribbbleClient) FetchShots(token string, limit int) ([]DribbbleShot, error) {
	if limit <= 0 {
		limit = 30
	}

	var shots []DribbbleShot
	url := fmt.Sprintf("%s/user/shots?per_page=%d", c.BaseURL, limit)
	if err := getJSON(url, token, nil, &shots); err != nil {
		return nil, err
	}
	return shots, nil
}
