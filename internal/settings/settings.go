// Package settings loads the per-workspace bridge configuration the host
// stores alongside its notes: the tag formats used to detect send targets,
// the message content template and the alias table.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/notelink/slack-bridge/internal/notes"
)

const (
	userFormatKey    = "user-format"
	channelFormatKey = "channel-format"
	contentFormatKey = "content-format"
	aliasesKey       = "aliases"

	// DefaultUserFormat matches tags like @jsmith.
	DefaultUserFormat = "@{username}"
	// DefaultChannelFormat matches tags like #general.
	DefaultChannelFormat = "#{channel}"
	// DefaultContentFormat sends the block text verbatim.
	DefaultContentFormat = "{block}"
)

// Settings is a point-in-time snapshot of the workspace configuration.
// Callers load a fresh snapshot per send so edits in the host take effect
// immediately.
type Settings struct {
	UserFormat    string
	ChannelFormat string
	ContentFormat string
	Aliases       map[string]string
}

// Load fetches every setting from the host, applying defaults for the ones
// that are unset.
func Load(ctx context.Context, store notes.Store) (Settings, error) {
	s := Settings{
		UserFormat:    DefaultUserFormat,
		ChannelFormat: DefaultChannelFormat,
		ContentFormat: DefaultContentFormat,
		Aliases:       map[string]string{},
	}

	if v, err := store.Setting(ctx, userFormatKey); err != nil {
		return Settings{}, fmt.Errorf("load %s: %w", userFormatKey, err)
	} else if v != "" {
		s.UserFormat = v
	}

	if v, err := store.Setting(ctx, channelFormatKey); err != nil {
		return Settings{}, fmt.Errorf("load %s: %w", channelFormatKey, err)
	} else if v != "" {
		s.ChannelFormat = v
	}

	contentFormat, err := loadContentFormat(ctx, store)
	if err != nil {
		return Settings{}, err
	}
	if contentFormat != "" {
		s.ContentFormat = contentFormat
	}

	aliases, err := loadAliases(ctx, store)
	if err != nil {
		return Settings{}, err
	}
	s.Aliases = aliases

	return s, nil
}

// loadContentFormat reads the content template. The setting may be stored as
// a block reference pointing at the template block, in which case the
// referenced block's text is the template.
func loadContentFormat(ctx context.Context, store notes.Store) (string, error) {
	raw, err := store.Setting(ctx, contentFormatKey)
	if err != nil {
		return "", fmt.Errorf("load %s: %w", contentFormatKey, err)
	}
	if raw == "" {
		return "", nil
	}

	ref := notes.ExtractRef(raw)
	if ref == raw {
		return raw, nil
	}
	text, err := store.BlockText(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("load %s block %s: %w", contentFormatKey, ref, err)
	}
	if strings.TrimSpace(text) == "" {
		return raw, nil
	}
	return text, nil
}

// loadAliases reads the alias table. The setting stores a block reference to
// a parent block whose children are alias entries: each child's text is the
// alias key and its first child's text names the Slack target.
func loadAliases(ctx context.Context, store notes.Store) (map[string]string, error) {
	aliases := map[string]string{}

	raw, err := store.Setting(ctx, aliasesKey)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", aliasesKey, err)
	}
	if raw == "" {
		return aliases, nil
	}

	tree, err := store.BasicTree(ctx, notes.ExtractRef(raw))
	if err != nil {
		return nil, fmt.Errorf("load %s tree: %w", aliasesKey, err)
	}
	for _, node := range tree {
		if node.Text == "" || len(node.Children) == 0 {
			continue
		}
		aliases[node.Text] = node.Children[0].Text
	}
	return aliases, nil
}
