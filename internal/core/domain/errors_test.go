package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrUnreadable", ErrUnreadable},
		{"ErrCorruptFile", ErrCorruptFile},
		{"ErrEmptyExtraction", ErrEmptyExtraction},
		{"ErrInvalidRecord", ErrInvalidRecord},
		{"ErrStoreUnavailable", ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Unique tests that no two sentinels match each other
func TestErrors_Unique(t *testing.T) {
	errs := []error{
		ErrNotFound, ErrInvalidInput, ErrUnsupportedType, ErrUnreadable,
		ErrCorruptFile, ErrEmptyExtraction, ErrInvalidRecord, ErrStoreUnavailable,
	}
	for i, a := range errs {
		for j, b := range errs {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

// TestErrors_Wrapping tests errors.Is through fmt.Errorf wrapping
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("hash /tmp/x.pdf: %w", ErrUnreadable)
	assert.True(t, errors.Is(wrapped, ErrUnreadable))
	assert.False(t, errors.Is(wrapped, ErrCorruptFile))
	assert.Contains(t, wrapped.Error(), "file unreadable")
}
