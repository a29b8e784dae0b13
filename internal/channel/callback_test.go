package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackPayload_RoundTrip(t *testing.T) {
	data := EncodeCloseListing(42)
	assert.LessOrEqual(t, len(data), 64, "telegram callback data limit")

	payload, err := ParseCallbackPayload(data)
	require.NoError(t, err)
	assert.Equal(t, EventCloseListing, payload.Event)

	id, err := payload.ListingID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestParseCallbackPayload_Errors(t *testing.T) {
	_, err := ParseCallbackPayload("not json at all")
	assert.Error(t, err)

	_, err = ParseCallbackPayload(`{"id":"3"}`)
	assert.Error(t, err, "missing event")
}

func TestCallbackPayload_BadID(t *testing.T) {
	payload, err := ParseCallbackPayload(`{"event":"CLOSE_LISTING","id":"abc"}`)
	require.NoError(t, err)

	_, err = payload.ListingID()
	assert.Error(t, err)
}
