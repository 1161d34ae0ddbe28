package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservedGroup(t *testing.T) {
	g := ObservedGroup(t, "fixture", []string{"a", "b"}, 10, 3)

	require.Equal(t, 2, g.Len())
	for _, sensor := range g.Observers() {
		mean := sensor.Pipelines()[0].MeanSpectrum()
		require.NotNil(t, mean)
		// Flat 3 over the 100 nm band integrates to 300.
		assert.InDelta(t, 300, mean.Total(), 1e-9)
	}
}
