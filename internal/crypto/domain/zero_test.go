package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZero(t *testing.T) {
	t.Run("zero non-empty slice", func(t *testing.T) {
		b := []byte{1, 2, 3, 4, 5}
		Zero(b)
		assert.Equal(t, []byte{0, 0, 0, 0, 0}, b)
	})

	t.Run("zero several slices", func(t *testing.T) {
		a := []byte{1, 2}
		b := []byte{3, 4, 5}
		Zero(a, b)
		assert.Equal(t, []byte{0, 0}, a)
		assert.Equal(t, []byte{0, 0, 0}, b)
	})

	t.Run("zero nil and empty slices", func(t *testing.T) {
		assert.NotPanics(t, func() { Zero(nil, []byte{}) })
		assert.NotPanics(t, func() { Zero() })
	})
}
