package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "zkid/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// IDs must be valid, non-empty, non-nil UUIDs.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePollID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseOptionID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
		assert.Equal(t, validUUID.String(), id.String())
	})
}

func TestOptionIDJSON(t *testing.T) {
	raw := uuid.New()

	var body struct {
		OptionID OptionID `json:"option_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"option_id":"`+raw.String()+`"}`), &body))
	assert.Equal(t, OptionID(raw), body.OptionID)

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"option_id":"`+raw.String()+`"}`, string(out))

	err = json.Unmarshal([]byte(`{"option_id":"nope"}`), &body)
	require.Error(t, err)
}
