package poolsentinel

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAndKindOf(t *testing.T) {
	base := errors.New("boom")
	wrapped := Classify(KindTransient, base)
	assert.Equal(t, KindTransient, KindOf(wrapped))
	assert.True(t, IsRetryable(wrapped))

	validationErr := Classify(KindValidation, base)
	assert.False(t, IsRetryable(validationErr))

	assert.Equal(t, KindUnknown, KindOf(base))
	assert.Nil(t, Classify(KindTransient, nil))
}

func TestClassifiedErrorUnwraps(t *testing.T) {
	base := errors.New("underlying")
	wrapped := Classify(KindNotFound, base)
	outer := fmt.Errorf("enrichment failed: %w", wrapped)

	assert.True(t, errors.Is(outer, base))
	assert.Equal(t, KindNotFound, KindOf(outer))
}
