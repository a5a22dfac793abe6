package simplefeed

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent_NewPostEnvelope(t *testing.T) {
	post := &Post{
		ID:        7,
		Title:     "Title",
		Content:   "Body",
		Type:      PostTypeBreaking,
		Source:    StringPtr("Wire"),
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	data, err := EncodeEvent(NewPostEvent{Post: post})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "NEW_POST", raw["type"])

	body, ok := raw["post"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(7), body["id"])
	assert.Equal(t, "Wire", body["source"])
	assert.Nil(t, body["author"])
	assert.Nil(t, body["tags"])
	assert.Equal(t, false, body["isBreaking"])
	assert.Equal(t, float64(0), body["viewCount"])
	assert.Equal(t, "2024-03-01T10:00:00Z", body["createdAt"])

	decoded, err := DecodeEvent(data)
	require.NoError(t, err)
	ev, ok := decoded.(NewPostEvent)
	require.True(t, ok)
	assert.Equal(t, EventNewPost, ev.Kind())
	assert.Equal(t, post, ev.Post)
}

func TestEncodeEvent_PointerVariant(t *testing.T) {
	data, err := EncodeEvent(&NewPostEvent{Post: &Post{ID: 1}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"NEW_POST"`)
}

func TestDecodeEvent_Errors(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"POST_DELETED","post":{}}`))
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = DecodeEvent([]byte(`not json`))
	assert.Error(t, err)

	_, err = DecodeEvent([]byte(`{"type":"NEW_POST","post":"oops"}`))
	assert.Error(t, err)
}
