package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// API is a small HTTP helper for the site endpoints. All requests share one
// client (and therefore one timeout), a browser user agent, and the current
// session cookie supplied per call.
type API struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

func NewAPI(baseURL string, timeout time.Duration) *API {
	return &API{
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: RandomUserAgent(),
	}
}

func (a *API) do(ctx context.Context, path string, params url.Values, cookie string) (*http.Response, error) {
	target := a.baseURL + path
	if params != nil {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", a.userAgent)
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: status %s", path, resp.Status)
	}
	return resp, nil
}

// GetHTML fetches a page and returns its body.
func (a *API) GetHTML(ctx context.Context, path string, cookie string) (string, error) {
	resp, err := a.do(ctx, path, nil, cookie)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetJSON fetches an API endpoint and decodes the JSON response into v.
func (a *API) GetJSON(ctx context.Context, path string, params url.Values, cookie string, v any) error {
	resp, err := a.do(ctx, path, params, cookie)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(v)
}

// FetchURL downloads an absolute URL, used for assets like cover images that
// live outside the site base.
func FetchURL(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", RandomUserAgent())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %s", target, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
