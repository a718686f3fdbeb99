package integrations

import "fmt"

// BehanceClient lists a user's public projects.
type BehanceClient struct {
	BaseURL string
	APIKey  string
}

func NewBehanceClient(apiKey string) *BehanceClient {
	return &BehanceClient{BaseURL: "https://api.behance.net/v2", APIKey: apiKey}
}

type BehanceProject struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Stats struct {
		Views         int `json:"views"`
		Appreciations int `json:"appreciations"`
	} `json:"stats"`
	Covers map[string]string `json:"covers"`
}

type behanceProjectsResponse struct {
	Projects []BehanceProject `json:"projects"`
}

func (c *BehanceClient) FetchProjects(username string) ([]BehanceProject, error) {
	url := fmt.Sprintf("%s/users/%s/projects?api_key=%s", c.BaseURL, username, c.APIKey)

	var resp behanceProjectsResponse
	if err := getJSON(url, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// Cover picks the largest available cover image.
func (p *BehanceProject) Cover() string {
	for _, size := range []string{"original", "404", "230", "115"} {
		if url, ok := p.Covers[size]; ok {
			return url
		}
	}
	return ""
}
