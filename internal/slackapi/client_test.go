package slackapi

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNotAuthed(t *testing.T) {
	assert.True(t, IsNotAuthed(errors.New("not_authed")))
	assert.True(t, IsNotAuthed(errors.New("invalid_auth: not_authed")))
	assert.False(t, IsNotAuthed(errors.New("channel_not_found")))
	assert.False(t, IsNotAuthed(nil))
}

func TestFactoryBuildsClient(t *testing.T) {
	factory := NewFactory(WithAPIURL("http://127.0.0.1:9/api"))
	assert.Equal(t, "http://127.0.0.1:9/api/", factory.apiURL, "API URL must end with a slash")
	assert.NotNil(t, factory.Client("xoxb-test"))
}
