// Package notes talks to the host note-taking application's block-store API.
// Blocks are the host's atomic content units, identified by stable UIDs; the
// service reads block text, ancestry, page titles, edit metadata and settings
// from here and never writes back.
package notes

import (
	"context"
	"regexp"
)

// Node is one block in a subtree, as returned by the tree endpoints.
type Node struct {
	UID      string `json:"uid"`
	Text     string `json:"text"`
	Children []Node `json:"children,omitempty"`
}

// Store is the host query surface consumed by the send pipeline.
type Store interface {
	// BlockText returns the raw text of a block, or "" if the block does not exist.
	BlockText(ctx context.Context, uid string) (string, error)

	// ResolveRefs expands inline block references in text to their target text.
	ResolveRefs(ctx context.Context, text string) (string, error)

	// PageTitle returns the title of the page containing the block.
	PageTitle(ctx context.Context, blockUID string) (string, error)

	// ParentText returns the text of the nearest ancestor block.
	ParentText(ctx context.Context, blockUID string) (string, error)

	// ParentTextByTag returns the text of the nearest ancestor tagged with tag,
	// or "" when no such ancestor exists.
	ParentTextByTag(ctx context.Context, blockUID, tag string) (string, error)

	// LastEditorEmail returns the email of whoever last edited the block.
	LastEditorEmail(ctx context.Context, blockUID string) (string, error)

	// DisplayNameByEmail returns the host-side display name for an email,
	// or "" when the host does not know the address.
	DisplayNameByEmail(ctx context.Context, email string) (string, error)

	// BasicTree returns the direct subtree under a parent block.
	BasicTree(ctx context.Context, parentUID string) ([]Node, error)

	// Setting returns a host-stored setting value, or "" when unset.
	Setting(ctx context.Context, key string) (string, error)

	// CurrentUserEmail returns the email of the host user owning the session.
	CurrentUserEmail(ctx context.Context) (string, error)

	// BaseURL returns the host application's base URL as seen by users.
	BaseURL() string
}

var blockRefPattern = regexp.MustCompile(`\(\(([\w\d-]+)\)\)`)

// ExtractRef pulls a block UID out of a ((uid)) reference. A value without
// reference syntax is returned unchanged, so callers can pass settings that
// hold either a literal or a reference.
func ExtractRef(value string) string {
	if match := blockRefPattern.FindStringSubmatch(value); match != nil {
		return match[1]
	}
	return value
}
