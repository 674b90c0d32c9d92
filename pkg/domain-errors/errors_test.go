package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodes(t *testing.T) {
	cause := errors.New("connection refused")

	t.Run("wrap keeps cause reachable", func(t *testing.T) {
		err := Wrap(cause, CodeBadGateway, "ocr unavailable")
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, CodeBadGateway, CodeOf(err))
		assert.Equal(t, "ocr unavailable", MessageOf(err))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", New(CodeWalletRequired, "connect a wallet"))
		assert.True(t, HasCode(err, CodeWalletRequired))
		assert.False(t, HasCode(err, CodeKYCRequired))
	})

	t.Run("uncoded errors are internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(cause))
		assert.Empty(t, MessageOf(cause))
	})
}
