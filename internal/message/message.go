// Package message expands a content template into the text posted to Slack.
// Templates mix literal text with placeholders resolved against the host's
// block store and a workspace directory snapshot.
package message

import (
	"context"
	"fmt"
	"regexp"

	"github.com/notelink/slack-bridge/internal/directory"
	"github.com/notelink/slack-bridge/internal/notes"
)

var (
	blockRe        = regexp.MustCompile(`(?i)\{block\}`)
	lastEditedByRe = regexp.MustCompile(`(?i)\{last edited by\}`)
	pageRe         = regexp.MustCompile(`(?i)\{page\}`)
	parentRe       = regexp.MustCompile(`(?i)\{parent(?::\s*((?:#?\[\[[^\]]*\]\]\s*)+))?\}`)
	linkRe         = regexp.MustCompile(`(?i)\{link\}`)
	parentTagRe    = regexp.MustCompile(`\[\[([^\]]*)\]\]`)
	markdownLinkRe = regexp.MustCompile(`\[([^\]]*)\]\(([^\)]*)\)`)
	pagePathRe     = regexp.MustCompile(`/page/.*$`)
)

// Context carries what a single expansion needs: the block being sent and
// the lookups used to fill placeholders.
type Context struct {
	BlockUID string
	Store    notes.Store
	Snapshot directory.Snapshot
}

// Expand replaces every placeholder in format and returns the message text.
// Host lookups happen only for placeholders actually present in the
// template. Markdown links are rewritten to Slack's <url|label> form as the
// final step, so links introduced by expanded block text are rewritten too.
func Expand(ctx context.Context, format string, mc Context) (string, error) {
	out := format

	if blockRe.MatchString(out) {
		text, err := blockText(ctx, mc)
		if err != nil {
			return "", err
		}
		out = blockRe.ReplaceAllLiteralString(out, text)
	}

	if lastEditedByRe.MatchString(out) {
		editor, err := lastEditedBy(ctx, mc)
		if err != nil {
			return "", err
		}
		out = lastEditedByRe.ReplaceAllLiteralString(out, editor)
	}

	if pageRe.MatchString(out) {
		title, err := mc.Store.PageTitle(ctx, mc.BlockUID)
		if err != nil {
			return "", fmt.Errorf("expand {page}: %w", err)
		}
		out = pageRe.ReplaceAllLiteralString(out, title)
	}

	var expandErr error
	out = parentRe.ReplaceAllStringFunc(out, func(match string) string {
		if expandErr != nil {
			return match
		}
		text, err := parentText(ctx, mc, match)
		if err != nil {
			expandErr = err
			return match
		}
		return text
	})
	if expandErr != nil {
		return "", expandErr
	}

	if linkRe.MatchString(out) {
		out = linkRe.ReplaceAllLiteralString(out, blockLink(mc))
	}

	return markdownLinkRe.ReplaceAllString(out, "<$2|$1>"), nil
}

func blockText(ctx context.Context, mc Context) (string, error) {
	raw, err := mc.Store.BlockText(ctx, mc.BlockUID)
	if err != nil {
		return "", fmt.Errorf("expand {block}: %w", err)
	}
	resolved, err := mc.Store.ResolveRefs(ctx, raw)
	if err != nil {
		return "", fmt.Errorf("expand {block} refs: %w", err)
	}
	return resolved, nil
}

// lastEditedBy renders the block's last editor: the Slack mention when the
// editor's email matches a workspace member, otherwise the host display
// name, otherwise the bare email.
func lastEditedBy(ctx context.Context, mc Context) (string, error) {
	email, err := mc.Store.LastEditorEmail(ctx, mc.BlockUID)
	if err != nil {
		return "", fmt.Errorf("expand {last edited by}: %w", err)
	}
	if member, ok := mc.Snapshot.MemberByEmail(email); ok {
		return "<@" + member.ID + ">", nil
	}
	name, err := mc.Store.DisplayNameByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("expand {last edited by}: %w", err)
	}
	if name != "" {
		return name, nil
	}
	return email, nil
}

// parentText expands one {parent} placeholder. With tag arguments the tags
// are tried in listed order and the first ancestor text found wins; the plain
// nearest ancestor is used only when none of the tags matches. Without
// arguments only the direct parent is rendered.
func parentText(ctx context.Context, mc Context, match string) (string, error) {
	sub := parentRe.FindStringSubmatch(match)
	args := parentTagRe.FindAllStringSubmatch(sub[1], -1)

	for _, arg := range args {
		tag := arg[1]
		text, err := mc.Store.ParentTextByTag(ctx, mc.BlockUID, tag)
		if err != nil {
			return "", fmt.Errorf("expand {parent} tag %q: %w", tag, err)
		}
		if text != "" {
			return mc.Store.ResolveRefs(ctx, text)
		}
	}

	text, err := mc.Store.ParentText(ctx, mc.BlockUID)
	if err != nil {
		return "", fmt.Errorf("expand {parent}: %w", err)
	}
	return mc.Store.ResolveRefs(ctx, text)
}

// blockLink builds a deep link to the block on the host. Any page path on
// the configured base URL is stripped first so links land on the block's
// own page.
func blockLink(mc Context) string {
	base := pagePathRe.ReplaceAllString(mc.Store.BaseURL(), "")
	return base + "/page/" + mc.BlockUID
}
