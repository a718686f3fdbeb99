package integrations

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGithubFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer gh_token" {
			t.Fatalf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"login":"octocat","name":"The Octocat","public_repos":8,"followers":100}`))
	}))
	defer srv.Close()

	client := &GithubClient{BaseURL: srv.URL}
	user, err := client.FetchUser("gh_token")
	if err != nil {
		t.Fatalf("FetchUser() error = %v", err)
	}
	if user.Login != "octocat" || user.PublicRepos != 8 {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestGithubFetchReposFiltersForks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"mine","stargazers_count":5,"fork":false},
			{"name":"forked","stargazers_count":9000,"fork":true},
			{"name":"also-mine","stargazers_count":1,"fork":false}
		]`))
	}))
	defer srv.Close()

	client := &GithubClient{BaseURL: srv.URL}
	repos, err := client.FetchRepos("gh_token", 10)
	if err != nil {
		t.Fatalf("FetchRepos() error = %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("expected forks filtered out, got %d repos", len(repos))
	}
	for _, r := range repos {
		if r.Fork {
			t.Fatalf("fork %s survived the filter", r.Name)
		}
	}
}

func TestNon2xxSurfacesAsExternalServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer srv.Close()

	client := &GithubClient{BaseURL: srv.URL}
	_, err := client.FetchUser("bad_token")
	if !errors.Is(err, ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}
