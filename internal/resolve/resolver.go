package resolve

import (
	"fmt"
	"strings"

	"github.com/notelink/slack-bridge/internal/directory"
)

// Kind distinguishes the two destination types.
type Kind int

const (
	// KindMember is a direct message destination (a workspace member).
	KindMember Kind = iota
	// KindChannel is a channel destination.
	KindChannel
)

// Destination is a resolved Slack entity.
type Destination struct {
	ID   string
	Kind Kind
}

// Query carries everything needed to resolve one tag.
type Query struct {
	Tag           string
	UserFormat    string
	ChannelFormat string
	Aliases       map[string]string
}

// NotFoundError reports that no member or channel matched the tag. Alias
// holds the alias value that was tried, if the tag had one.
type NotFoundError struct {
	Tag   string
	Alias string
}

func (e *NotFoundError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("no Slack destination found for tag %q (tried alias %q)", e.Tag, e.Alias)
	}
	return fmt.Sprintf("no Slack destination found for tag %q", e.Tag)
}

// Resolve maps a tag to a Slack destination against an immutable directory
// snapshot. Priority order: an alias value is uppercased and used as a
// literal name target; otherwise the tag is matched against the real-name
// pattern, else the username pattern, and independently against the channel
// pattern. Members are checked before channels, so on a name collision the
// member wins; within each list the first match in iteration order wins.
// An alias is a rename hint, not a guaranteed destination: an alias naming
// nothing still fails resolution.
func Resolve(q Query, snap *directory.Snapshot) (Destination, error) {
	aliasValue, hasAlias := q.Aliases[q.Tag]
	aliasTarget := ""
	if hasAlias {
		aliasTarget = strings.ToUpper(aliasValue)
	}

	realPattern := ParseFormat(q.UserFormat, RealNameToken)
	usernamePattern := ParseFormat(q.UserFormat, UsernameToken)
	channelPattern := ParseFormat(q.ChannelFormat, ChannelToken)

	realCapture, realOK := realPattern.Match(q.Tag)
	usernameCapture, usernameOK := usernamePattern.Match(q.Tag)
	channelCapture, channelOK := channelPattern.Match(q.Tag)

	memberMatches := func(m directory.Member) bool {
		if aliasTarget != "" && strings.ToUpper(m.DisplayLabel()) == aliasTarget {
			return true
		}
		switch {
		case realOK:
			return m.RealName != "" && strings.EqualFold(m.RealName, realCapture)
		case usernameOK:
			return m.DisplayLabel() != "" && strings.EqualFold(m.DisplayLabel(), usernameCapture)
		}
		return false
	}
	channelMatches := func(c directory.Channel) bool {
		if aliasTarget != "" && strings.ToUpper(c.Name) == aliasTarget {
			return true
		}
		return channelOK && strings.EqualFold(c.Name, channelCapture)
	}

	for _, m := range snap.Members {
		if memberMatches(m) {
			return Destination{ID: m.ID, Kind: KindMember}, nil
		}
	}
	for _, c := range snap.Channels {
		if channelMatches(c) {
			return Destination{ID: c.ID, Kind: KindChannel}, nil
		}
	}
	return Destination{}, &NotFoundError{Tag: q.Tag, Alias: aliasValue}
}

// Eligible reports whether a tag is worth mounting the send popover for:
// it is a known alias key or matches one of the configured format patterns.
func (q Query) Eligible() bool {
	if _, ok := q.Aliases[q.Tag]; ok {
		return true
	}
	if _, ok := ParseFormat(q.UserFormat, RealNameToken).Match(q.Tag); ok {
		return true
	}
	if _, ok := ParseFormat(q.UserFormat, UsernameToken).Match(q.Tag); ok {
		return true
	}
	_, ok := ParseFormat(q.ChannelFormat, ChannelToken).Match(q.Tag)
	return ok
}
