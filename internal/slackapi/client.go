// Package slackapi narrows the Slack Web API surface used by this service and
// builds per-token clients, since bot-mode and as-user sends authenticate
// differently.
package slackapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/slack-go/slack"
)

// Client is the slice of the Slack Web API this service calls.
type Client interface {
	GetUsersPaginated(options ...slack.GetUsersOption) slack.UserPagination
	GetConversationsContext(ctx context.Context, params *slack.GetConversationsParameters) ([]slack.Channel, string, error)
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
}

// Factory builds Slack clients for a given token.
type Factory struct {
	apiURL     string
	httpClient *http.Client
}

// Option configures a Factory.
type Option func(*Factory)

// WithAPIURL overrides the Slack API base URL (useful for tests and proxies).
func WithAPIURL(url string) Option {
	return func(f *Factory) {
		if url != "" && !strings.HasSuffix(url, "/") {
			url += "/"
		}
		f.apiURL = url
	}
}

// WithHTTPClient sets the HTTP client used for Slack API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Factory) {
		f.httpClient = client
	}
}

// NewFactory creates a Factory with the given options.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns a Slack client authenticated with the given token.
func (f *Factory) Client(token string) Client {
	var options []slack.Option
	if f.apiURL != "" {
		options = append(options, slack.OptionAPIURL(f.apiURL))
	}
	if f.httpClient != nil {
		options = append(options, slack.OptionHTTPClient(f.httpClient))
	}
	return slack.New(token, options...)
}

// IsNotAuthed reports whether a Slack error indicates a missing or rejected
// login, e.g. "not_authed" or "invalid_auth: not_authed".
func IsNotAuthed(err error) bool {
	if err == nil {
		return false
	}
	return strings.HasSuffix(err.Error(), "not_authed")
}
