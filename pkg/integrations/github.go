package integrations

import (
	"fmt"
	"time"
)

// GithubClient talks to the GitHub REST API with a user token.
type GithubClient struct {
	BaseURL string
}

func NewGithubClient() *GithubClient {
	return &GithubClient{BaseURL: "https://api.github.com"}
}

type GithubUser struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	AvatarURL   string `json:"avatar_url"`
	Bio         string `json:"bio"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

type GithubRepository struct {
	Name        string     `json:"name"`
	FullName    string     `json:"full_name"`
	Description string     `json:"description"`
	Language    string     `json:"language"`
	Stars       int        `json:"stargazers_count"`
	Forks       int        `json:"forks_count"`
	HTMLURL     string     `json:"html_url"`
	Fork        bool       `json:"fork"`
	PushedAt    *time.Time `json:"pushed_at"`
}

func (c *GithubClient) FetchUser(token string) (*GithubUser, error) {
	var user GithubUser
	if err := getJSON(c.BaseURL+"/user", token, githubHeaders(), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchRepos returns the user's most recently pushed repositories,
// forks excluded.
func (c *GithubClient) FetchRepos(token string, limit int) ([]GithubRepository, error) {
	if limit <= 0 {
		limit = 30
	}

	var repos []GithubRepository
	url := fmt.Sprintf("%s/user/repos?sort=pushed&per_page=%d&type=owner", c.BaseURL, limit)
	if err := getJSON(url, token, githubHeaders(), &repos); err != nil {
		return nil, err
	}

	out := repos[:0]
	for _, r := range repos {
		if !r.Fork {
			out = append(out, r)
		}
	}
	return out, nil
}

func githubHeaders() map[string]string {
	return map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
}
