// Package integrations holds the stateless HTTP clients for the
// external profile sources a portfolio can be assembled from. Each
// client is a thin bearer-token proxy; failures surface as
// ErrExternalService and are logged plus converted to a transient
// notification by the controllers, never panicked upward.
package integrations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrExternalService marks any third-party non-2xx or network failure.
var ErrExternalService = errors.New("integrations: external service error")

var httpClient = &http.Client{Timeout: 15 * time.Second}

// getJSON performs a GET with optional bearer auth and decodes the
// JSON response into out.
func getJSON(url, token string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrExternalService, url, resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
