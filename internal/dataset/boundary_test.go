package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitBoundariesChangePoints(t *testing.T) {
	labels := []int32{0, 0, 4, 4, 4, 0, 0}
	assert.Equal(t, []int32{0, 1, 0, 0, 1, 0, 1}, UnitBoundaries(labels))
}

func TestUnitBoundariesForcedTerminal(t *testing.T) {
	// The last sample is marked even when the label never changes.
	boundaries := UnitBoundaries([]int32{3, 3, 3, 3})
	assert.Equal(t, []int32{0, 0, 0, 1}, boundaries)
}

func TestUnitBoundariesSingleSample(t *testing.T) {
	assert.Equal(t, []int32{1}, UnitBoundaries([]int32{0}))
}

func TestUnitBoundariesEmpty(t *testing.T) {
	assert.Empty(t, UnitBoundaries(nil))
}
