package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/notelink/slack-bridge/pkg/logger"
)

// Client implements Store over the host's JSON API.
type Client struct {
	baseURL string
	apiURL  string
	http    *http.Client
	log     logger.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for host API calls.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithClientLogger sets the logger for host API calls.
func WithClientLogger(log logger.Logger) ClientOption {
	return func(cl *Client) {
		cl.log = log
	}
}

// NewClient creates a host API client. baseURL is the user-facing host URL
// (also used to build share links); the API is served under its /api prefix.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	trimmed := strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: trimmed,
		apiURL:  trimmed + "/api",
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the user-facing host URL.
func (c *Client) BaseURL() string { return c.baseURL }

// get performs a GET request and decodes the JSON response into out.
// A 404 is not an error: out is left at its zero value.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.apiURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("host request %s: %w", path, err)
	}
	return c.do(req, path, out)
}

// post performs a POST request with a JSON body and decodes the response.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("host request %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("host request %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *Client) do(req *http.Request, path string, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("host request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("host request %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("host response %s: %w", path, err)
	}
	return nil
}

// BlockText returns the raw text of a block.
func (c *Client) BlockText(ctx context.Context, uid string) (string, error) {
	var body struct {
		Text string `json:"text"`
	}
	err := c.get(ctx, "/blocks/"+url.PathEscape(uid), nil, &body)
	return body.Text, err
}

// ResolveRefs expands inline block references in text.
func (c *Client) ResolveRefs(ctx context.Context, text string) (string, error) {
	var body struct {
		Text string `json:"text"`
	}
	err := c.post(ctx, "/resolve-refs", map[string]string{"text": text}, &body)
	return body.Text, err
}

// PageTitle returns the title of the page containing a block.
func (c *Client) PageTitle(ctx context.Context, blockUID string) (string, error) {
	var body struct {
		Title string `json:"title"`
	}
	err := c.get(ctx, "/blocks/"+url.PathEscape(blockUID)+"/page", nil, &body)
	return body.Title, err
}

// ParentText returns the text of the nearest ancestor block.
func (c *Client) ParentText(ctx context.Context, blockUID string) (string, error) {
	return c.parentText(ctx, blockUID, "")
}

// ParentTextByTag returns the text of the nearest ancestor tagged with tag.
func (c *Client) ParentTextByTag(ctx context.Context, blockUID, tag string) (string, error) {
	return c.parentText(ctx, blockUID, tag)
}

func (c *Client) parentText(ctx context.Context, blockUID, tag string) (string, error) {
	var query url.Values
	if tag != "" {
		query = url.Values{"tag": {tag}}
	}
	var body struct {
		Text string `json:"text"`
	}
	err := c.get(ctx, "/blocks/"+url.PathEscape(blockUID)+"/parent", query, &body)
	return body.Text, err
}

// LastEditorEmail returns the email of whoever last edited a block.
func (c *Client) LastEditorEmail(ctx context.Context, blockUID string) (string, error) {
	var body struct {
		Email string `json:"email"`
	}
	err := c.get(ctx, "/blocks/"+url.PathEscape(blockUID)+"/editor", nil, &body)
	return body.Email, err
}

// DisplayNameByEmail returns the host display name for an email.
func (c *Client) DisplayNameByEmail(ctx context.Context, email string) (string, error) {
	var body struct {
		DisplayName string `json:"display_name"`
	}
	err := c.get(ctx, "/users/by-email", url.Values{"email": {email}}, &body)
	return body.DisplayName, err
}

// BasicTree returns the direct subtree under a parent block.
func (c *Client) BasicTree(ctx context.Context, parentUID string) ([]Node, error) {
	var body struct {
		Children []Node `json:"children"`
	}
	err := c.get(ctx, "/blocks/"+url.PathEscape(parentUID)+"/tree", nil, &body)
	return body.Children, err
}

// Setting returns a host-stored setting value, "" when unset.
func (c *Client) Setting(ctx context.Context, key string) (string, error) {
	var body struct {
		Value string `json:"value"`
	}
	err := c.get(ctx, "/settings/"+url.PathEscape(key), nil, &body)
	return body.Value, err
}

// CurrentUserEmail returns the email of the host user owning the session.
func (c *Client) CurrentUserEmail(ctx context.Context) (string, error) {
	var body struct {
		Email string `json:"email"`
	}
	err := c.get(ctx, "/session", nil, &body)
	return body.Email, err
}
