package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SanityClient queries a Sanity dataset over its HTTP query API.
type SanityClient struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	// BaseURL overrides https://<project>.api.sanity.io, used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

func NewSanityClient(projectID, dataset, apiVersion string, timeout time.Duration) *SanityClient {
	if dataset == "" {
		dataset = "production"
	}
	if apiVersion == "" {
		apiVersion = "2024-01-01"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SanityClient{
		ProjectID:  projectID,
		Dataset:    dataset,
		APIVersion: apiVersion,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

func (c *SanityClient) endpoint(query string) string {
	base := c.BaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.api.sanity.io", c.ProjectID)
	}
	version := c.APIVersion
	if !strings.HasPrefix(version, "v") {
		version = "v" + version
	}
	return fmt.Sprintf("%s/%s/data/query/%s?query=%s",
		strings.TrimRight(base, "/"), version, url.PathEscape(c.Dataset), url.QueryEscape(query))
}

type sanityResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Description string `json:"description"`
	} `json:"error"`
}

func (c *SanityClient) Fetch(ctx context.Context, query string, dst any) error {
	if c.ProjectID == "" && c.BaseURL == "" {
		return fmt.Errorf("sanity: project id not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(query), nil)
	if err != nil {
		return fmt.Errorf("building sanity request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("querying sanity: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("reading sanity response: %w", err)
	}

	var out sanityResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("decoding sanity response (status %d): %w", resp.StatusCode, err)
	}
	if out.Error != nil {
		return fmt.Errorf("sanity: %s", out.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sanity: unexpected status %d", resp.StatusCode)
	}
	if len(out.Result) == 0 || string(out.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(out.Result, dst); err != nil {
		return fmt.Errorf("decoding sanity result: %w", err)
	}
	return nil
}
