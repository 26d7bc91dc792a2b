package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notelink/slack-bridge/internal/directory"
)

func testSnapshot() *directory.Snapshot {
	return &directory.Snapshot{
		Members: []directory.Member{
			{ID: "U1", Name: "jsmith", RealName: "John Smith", DisplayName: "jsmith", Email: "jsmith@example.com"},
			{ID: "U2", Name: "adoe", RealName: "Anna Doe", Email: "adoe@example.com"},
			{ID: "U3", Name: "general", RealName: "Gene Ral", DisplayName: "general", Email: "general@example.com"},
		},
		Channels: []directory.Channel{
			{ID: "C1", Name: "general"},
			{ID: "C2", Name: "random"},
		},
	}
}

func baseQuery(tag string) Query {
	return Query{
		Tag:           tag,
		UserFormat:    "@{username}",
		ChannelFormat: "#{channel}",
	}
}

func TestResolveUsername(t *testing.T) {
	dest, err := Resolve(baseQuery("@jsmith"), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, Destination{ID: "U1", Kind: KindMember}, dest)
}

func TestResolveUsernameCaseInsensitive(t *testing.T) {
	dest, err := Resolve(baseQuery("@JSMITH"), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "U1", dest.ID)
}

func TestResolveDisplayNameFallsBackToAccountName(t *testing.T) {
	// U2 has no display name; its account name is the display label.
	dest, err := Resolve(baseQuery("@adoe"), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "U2", dest.ID)
}

func TestResolveRealNameFormat(t *testing.T) {
	q := baseQuery("person: John Smith")
	q.UserFormat = "person: {real name}"

	dest, err := Resolve(q, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, Destination{ID: "U1", Kind: KindMember}, dest)
}

func TestResolveChannel(t *testing.T) {
	dest, err := Resolve(baseQuery("#random"), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, Destination{ID: "C2", Kind: KindChannel}, dest)
}

func TestMemberWinsNameCollision(t *testing.T) {
	// "general" names both a member display name and a channel; members are
	// checked first, so the member wins.
	q := baseQuery("@general")
	q.Aliases = map[string]string{"@general": "general"}

	dest, err := Resolve(q, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, Destination{ID: "U3", Kind: KindMember}, dest)
}

func TestAliasOverridesFormat(t *testing.T) {
	// The tag matches no format capture but the alias names a member.
	q := Query{
		Tag:           "my-colleague",
		UserFormat:    "@{username}",
		ChannelFormat: "#{channel}",
		Aliases:       map[string]string{"my-colleague": "jsmith"},
	}

	dest, err := Resolve(q, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "U1", dest.ID)
}

func TestAliasMatchesChannel(t *testing.T) {
	q := Query{
		Tag:           "the-lounge",
		UserFormat:    "@{username}",
		ChannelFormat: "#{channel}",
		Aliases:       map[string]string{"the-lounge": "RANDOM"},
	}

	dest, err := Resolve(q, testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, Destination{ID: "C2", Kind: KindChannel}, dest)
}

func TestAliasNamingNothingFails(t *testing.T) {
	q := baseQuery("@ghost")
	q.Aliases = map[string]string{"@ghost": "nobody-here"}

	_, err := Resolve(q, testSnapshot())
	require.Error(t, err)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "@ghost", notFound.Tag)
	assert.Equal(t, "nobody-here", notFound.Alias)
	assert.Contains(t, err.Error(), "nobody-here")
}

func TestResolveNotFound(t *testing.T) {
	_, err := Resolve(baseQuery("@stranger"), testSnapshot())
	require.Error(t, err)

	var notFound *NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Empty(t, notFound.Alias)
}

func TestEmptyCaptureDoesNotMatchBlankNames(t *testing.T) {
	snap := &directory.Snapshot{Members: []directory.Member{{ID: "U9"}}}

	_, err := Resolve(baseQuery("@"), snap)
	assert.Error(t, err)
}

func TestEligible(t *testing.T) {
	q := baseQuery("@jsmith")
	assert.True(t, q.Eligible())

	assert.True(t, baseQuery("#general").Eligible())
	assert.False(t, baseQuery("plain-tag").Eligible())

	aliased := baseQuery("plain-tag")
	aliased.Aliases = map[string]string{"plain-tag": "jsmith"}
	assert.True(t, aliased.Eligible())
}
