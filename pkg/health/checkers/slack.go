package checkers

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// AuthTester is the slice of the Slack client used to verify credentials.
type AuthTester interface {
	AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error)
}

// SlackChecker verifies that the configured Slack token is accepted via auth.test.
type SlackChecker struct {
	api  AuthTester
	name string
}

// NewSlackChecker creates a new Slack credential health checker.
// If name is empty, defaults to "slack".
func NewSlackChecker(api AuthTester, name string) *SlackChecker {
	if name == "" {
		name = "slack"
	}
	return &SlackChecker{api: api, name: name}
}

// Name returns the name of this health check.
func (s *SlackChecker) Name() string { return s.name }

// Check calls auth.test with the configured token.
func (s *SlackChecker) Check(ctx context.Context) error {
	if _, err := s.api.AuthTestContext(ctx); err != nil {
		return fmt.Errorf("slack auth.test failed: %w", err)
	}
	return nil
}
