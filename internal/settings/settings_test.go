package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notelink/slack-bridge/internal/notes"
)

type fakeStore struct {
	notes.Store

	settings map[string]string
	blocks   map[string]string
	trees    map[string][]notes.Node
	err      error
}

func (f *fakeStore) Setting(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.settings[key], nil
}

func (f *fakeStore) BlockText(_ context.Context, uid string) (string, error) {
	return f.blocks[uid], nil
}

func (f *fakeStore) BasicTree(_ context.Context, parentUID string) ([]notes.Node, error) {
	return f.trees[parentUID], nil
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(context.Background(), &fakeStore{})
	require.NoError(t, err)

	assert.Equal(t, "@{username}", s.UserFormat)
	assert.Equal(t, "#{channel}", s.ChannelFormat)
	assert.Equal(t, "{block}", s.ContentFormat)
	assert.Empty(t, s.Aliases)
}

func TestLoadOverrides(t *testing.T) {
	store := &fakeStore{settings: map[string]string{
		"user-format":    "slack/{real name}",
		"channel-format": "room/{channel}",
		"content-format": "{page}: {block}",
	}}

	s, err := Load(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, "slack/{real name}", s.UserFormat)
	assert.Equal(t, "room/{channel}", s.ChannelFormat)
	assert.Equal(t, "{page}: {block}", s.ContentFormat)
}

func TestLoadContentFormatFromBlockRef(t *testing.T) {
	store := &fakeStore{
		settings: map[string]string{"content-format": "((tmpl-uid))"},
		blocks:   map[string]string{"tmpl-uid": "{block} - {link}"},
	}

	s, err := Load(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, "{block} - {link}", s.ContentFormat)
}

func TestLoadContentFormatEmptyReferencedBlock(t *testing.T) {
	store := &fakeStore{
		settings: map[string]string{"content-format": "((gone-uid))"},
	}

	s, err := Load(context.Background(), store)
	require.NoError(t, err)

	// A dangling reference falls back to the raw setting value.
	assert.Equal(t, "((gone-uid))", s.ContentFormat)
}

func TestLoadAliases(t *testing.T) {
	store := &fakeStore{
		settings: map[string]string{"aliases": "((alias-uid))"},
		trees: map[string][]notes.Node{
			"alias-uid": {
				{UID: "a1", Text: "boss", Children: []notes.Node{{UID: "a2", Text: "jsmith"}}},
				{UID: "b1", Text: "standup", Children: []notes.Node{{UID: "b2", Text: "#general"}}},
				{UID: "c1", Text: "orphan"},
			},
		},
	}

	s, err := Load(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"boss":    "jsmith",
		"standup": "#general",
	}, s.Aliases)
}

func TestLoadPropagatesStoreError(t *testing.T) {
	store := &fakeStore{err: errors.New("host unreachable")}

	_, err := Load(context.Background(), store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "host unreachable")
}
