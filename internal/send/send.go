// Package send orchestrates a single tag-to-Slack send: load workspace
// settings, snapshot the Slack directory, resolve the tag to a destination,
// expand the content template and post the message.
package send

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/slack-go/slack"

	"github.com/notelink/slack-bridge/internal/directory"
	"github.com/notelink/slack-bridge/internal/message"
	"github.com/notelink/slack-bridge/internal/notes"
	"github.com/notelink/slack-bridge/internal/resolve"
	"github.com/notelink/slack-bridge/internal/settings"
	"github.com/notelink/slack-bridge/internal/slackapi"
	"github.com/notelink/slack-bridge/pkg/logger"
	"github.com/notelink/slack-bridge/pkg/metrics"
)

var (
	// ErrSendInProgress is returned when a send for the same block and tag
	// is already running.
	ErrSendInProgress = errors.New("send already in progress for this block and tag")
	// ErrLoginRequired is returned when Slack rejects the token.
	ErrLoginRequired = errors.New("slack login required")
)

// State describes where a send currently is in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Tokens holds the Slack credentials for a send. Bot is required; User is
// only consulted for as-user sends.
type Tokens struct {
	Bot  string
	User string
}

// TokenSource supplies Slack tokens per send so rotated credentials take
// effect without a restart.
type TokenSource interface {
	Tokens(ctx context.Context) (Tokens, error)
}

// StaticTokens is a TokenSource returning fixed tokens.
type StaticTokens Tokens

func (s StaticTokens) Tokens(context.Context) (Tokens, error) {
	return Tokens(s), nil
}

// ClientFactory builds Slack clients per token. *slackapi.Factory satisfies
// it.
type ClientFactory interface {
	Client(token string) slackapi.Client
}

// Request identifies one send.
type Request struct {
	BlockUID string
	Tag      string
	AsUser   bool
}

// Result reports where a message was delivered.
type Result struct {
	ChannelID string
	Timestamp string
}

// Orchestrator runs sends. It is safe for concurrent use; concurrent sends
// for the same block and tag are rejected with ErrSendInProgress.
type Orchestrator struct {
	store   notes.Store
	factory ClientFactory
	tokens  TokenSource
	log     logger.Logger
	metrics *metrics.Metrics

	pageLimit int

	mu     sync.Mutex
	states map[sendKey]State
}

type sendKey struct {
	blockUID string
	tag      string
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithPageLimit sets the per-page entity limit for directory fetches.
func WithPageLimit(limit int) OrchestratorOption {
	return func(o *Orchestrator) {
		if limit > 0 {
			o.pageLimit = limit
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = log }
}

// WithMetrics sets the metrics sink for send outcome counters.
func WithMetrics(m *metrics.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(store notes.Store, factory ClientFactory, tokens TokenSource, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		factory: factory,
		tokens:  tokens,
		log:     logger.NewNopLogger(),
		states:  map[sendKey]State{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state for a block and tag.
func (o *Orchestrator) State(blockUID, tag string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[sendKey{blockUID: blockUID, tag: tag}]
}

// Send runs the full pipeline for one request. Settings and the directory
// are fetched fresh on every call so edits in the host or the workspace are
// picked up immediately.
func (o *Orchestrator) Send(ctx context.Context, req Request) (Result, error) {
	key := sendKey{blockUID: req.BlockUID, tag: req.Tag}
	if !o.begin(key) {
		return Result{}, ErrSendInProgress
	}

	res, err := o.send(ctx, req)
	o.finish(key, err)
	o.observeOutcome(err)
	return res, err
}

func (o *Orchestrator) begin(key sendKey) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.states[key] == StateLoading {
		return false
	}
	o.states[key] = StateLoading
	return true
}

func (o *Orchestrator) finish(key sendKey, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.states[key] = StateError
		return
	}
	o.states[key] = StateSuccess
}

func (o *Orchestrator) observeOutcome(err error) {
	var notFound *resolve.NotFoundError
	switch {
	case err == nil:
		o.metrics.IncSendOutcome("sent")
	case errors.As(err, &notFound):
		o.metrics.IncSendOutcome("not_found")
	case errors.Is(err, ErrLoginRequired):
		o.metrics.IncSendOutcome("not_authed")
	default:
		o.metrics.IncSendOutcome("slack_error")
	}
}

func (o *Orchestrator) send(ctx context.Context, req Request) (Result, error) {
	log := o.log.WithFields(
		logger.StringField("block_uid", req.BlockUID),
		logger.StringField("tag", req.Tag),
	)

	tokens, err := o.tokens.Tokens(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load tokens: %w", err)
	}

	cfg, err := settings.Load(ctx, o.store)
	if err != nil {
		return Result{}, fmt.Errorf("load settings: %w", err)
	}

	api := o.factory.Client(tokens.Bot)

	fetchOpts := []directory.FetcherOption{directory.WithLogger(o.log)}
	if o.pageLimit > 0 {
		fetchOpts = append(fetchOpts, directory.WithPageLimit(o.pageLimit))
	}
	if o.metrics != nil {
		fetchOpts = append(fetchOpts, directory.WithMetrics(o.metrics))
	}
	snapshot, err := directory.NewFetcher(api, fetchOpts...).Fetch(ctx)
	if err != nil {
		if slackapi.IsNotAuthed(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrLoginRequired, err)
		}
		return Result{}, fmt.Errorf("fetch directory: %w", err)
	}

	dest, err := resolve.Resolve(resolve.Query{
		Tag:           req.Tag,
		UserFormat:    cfg.UserFormat,
		ChannelFormat: cfg.ChannelFormat,
		Aliases:       cfg.Aliases,
	}, snapshot)
	if err != nil {
		return Result{}, err
	}

	text, err := message.Expand(ctx, cfg.ContentFormat, message.Context{
		BlockUID: req.BlockUID,
		Store:    o.store,
		Snapshot: *snapshot,
	})
	if err != nil {
		return Result{}, fmt.Errorf("expand content: %w", err)
	}

	poster, options, err := o.poster(ctx, api, tokens, req, snapshot)
	if err != nil {
		return Result{}, err
	}
	options = append(options, slack.MsgOptionText(text, false))

	channelID, timestamp, err := poster.PostMessageContext(ctx, dest.ID, options...)
	if err != nil {
		if slackapi.IsNotAuthed(err) {
			return Result{}, fmt.Errorf("%w: %s", ErrLoginRequired, err)
		}
		return Result{}, fmt.Errorf("post message: %w", err)
	}

	log.Info("message sent",
		logger.StringField("channel_id", channelID),
		logger.BoolField("as_user", req.AsUser))
	return Result{ChannelID: channelID, Timestamp: timestamp}, nil
}

// poster picks the client and message options for the request. An as-user
// send authenticates with the user token and, when the sender's host
// account maps to a workspace member, posts under that member's display
// label.
func (o *Orchestrator) poster(ctx context.Context, api slackapi.Client, tokens Tokens, req Request, snapshot *directory.Snapshot) (slackapi.Client, []slack.MsgOption, error) {
	if !req.AsUser {
		return api, nil, nil
	}
	if tokens.User == "" {
		return nil, nil, fmt.Errorf("%w: no user token configured", ErrLoginRequired)
	}

	var options []slack.MsgOption
	email, err := o.store.CurrentUserEmail(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("look up sender: %w", err)
	}
	if member, ok := snapshot.MemberByEmail(email); ok && member.DisplayLabel() != "" {
		options = append(options, slack.MsgOptionUsername(member.DisplayLabel()))
	}
	return o.factory.Client(tokens.User), options, nil
}
