package directory

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"golang.org/x/sync/errgroup"

	"github.com/notelink/slack-bridge/internal/slackapi"
	"github.com/notelink/slack-bridge/pkg/logger"
	"github.com/notelink/slack-bridge/pkg/metrics"
)

const defaultPageLimit = 200

// Fetcher retrieves the full member and channel directories from Slack.
type Fetcher struct {
	api       slackapi.Client
	pageLimit int
	log       logger.Logger
	metrics   *metrics.Metrics
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithPageLimit sets the per-page entity limit passed to Slack.
func WithPageLimit(limit int) FetcherOption {
	return func(f *Fetcher) {
		if limit > 0 {
			f.pageLimit = limit
		}
	}
}

// WithLogger sets the logger used for fetch progress.
func WithLogger(log logger.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = log
	}
}

// WithMetrics sets the metrics sink for Slack API call counters.
func WithMetrics(m *metrics.Metrics) FetcherOption {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// NewFetcher creates a Fetcher over the given Slack client.
func NewFetcher(api slackapi.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		api:       api,
		pageLimit: defaultPageLimit,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves members and channels concurrently. Any failed page aborts
// the whole fetch; a partial directory is never returned.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	var (
		members  []Member
		channels []Channel
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = f.fetchMembers(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		channels, err = f.fetchChannels(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if f.log != nil {
		f.log.Debug("directory fetched",
			logger.IntField("members", len(members)),
			logger.IntField("channels", len(channels)))
	}
	return &Snapshot{Members: members, Channels: channels}, nil
}

// fetchMembers pages through users.list until Slack stops returning a cursor.
func (f *Fetcher) fetchMembers(ctx context.Context) ([]Member, error) {
	pagination := f.api.GetUsersPaginated(slack.GetUsersOptionLimit(f.pageLimit))
	var (
		users []slack.User
		err   error
	)
	for err == nil {
		pagination, err = pagination.Next(ctx)
		if err == nil {
			f.metrics.IncSlackRequest("users.list")
			users = append(users, pagination.Users...)
		}
	}
	if failure := pagination.Failure(err); failure != nil {
		return nil, fmt.Errorf("users.list: %w", failure)
	}

	seen := make(map[string]bool, len(users))
	members := make([]Member, 0, len(users))
	for _, u := range users {
		if seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		members = append(members, Member{
			ID:          u.ID,
			Name:        u.Name,
			RealName:    u.RealName,
			Email:       u.Profile.Email,
			DisplayName: u.Profile.DisplayName,
		})
	}
	return members, nil
}

// fetchChannels pages through conversations.list until the returned cursor is
// empty.
func (f *Fetcher) fetchChannels(ctx context.Context) ([]Channel, error) {
	seen := make(map[string]bool)
	var channels []Channel
	cursor := ""
	for {
		page, next, err := f.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Cursor: cursor,
			Limit:  f.pageLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("conversations.list: %w", err)
		}
		f.metrics.IncSlackRequest("conversations.list")
		for _, ch := range page {
			if seen[ch.ID] {
				continue
			}
			seen[ch.ID] = true
			channels = append(channels, Channel{ID: ch.ID, Name: ch.Name})
		}
		cursor = next
		if cursor == "" {
			return channels, nil
		}
	}
}
