package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAnomalous(t *testing.T) {
	tests := []struct {
		name      string
		sameValue int
		total     int
		minCount  int
		threshold float64
		want      bool
	}{
		{"below minimum sample size", 5, 9, 10, 0.8, false},
		{"at share and at minimum total", 9, 10, 10, 0.8, true},
		{"over threshold and minimum", 85, 100, 10, 0.8, true},
		{"exactly at threshold does not trip", 80, 100, 10, 0.8, false},
		{"no recent ratings", 0, 0, 10, 0.8, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isAnomalous(tt.sameValue, tt.total, tt.minCount, tt.threshold))
		})
	}
}

func TestRecomputeAggregate(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		avg, count, dist := recomputeAggregate(nil)
		assert.Zero(t, avg)
		assert.Zero(t, count)
		assert.Empty(t, dist)
	})

	t.Run("weighted average over full weight and penalized rows", func(t *testing.T) {
		all := []Rating{
			{Value: 5, Weight: 1.0},
			{Value: 5, Weight: 1.0},
			{Value: 1, Weight: 0.0001}, // anomaly-penalized burst rating
		}
		avg, count, dist := recomputeAggregate(all)
		assert.Equal(t, 3, count)
		assert.InDelta(t, 5.0, avg, 0.01, "penalized burst rating should barely move the average")
		assert.Equal(t, 2, dist["5"])
		assert.Equal(t, 1, dist["1"])
	})

	t.Run("zero weight rows fall back to weight 1", func(t *testing.T) {
		all := []Rating{{Value: 4, Weight: 0}}
		avg, count, _ := recomputeAggregate(all)
		assert.Equal(t, 1, count)
		assert.Equal(t, 4.0, avg)
	})
}

func TestClampAverage(t *testing.T) {
	assert.Equal(t, 0.0, clampAverage(-1))
	assert.Equal(t, 5.0, clampAverage(6))
	assert.Equal(t, 3.5, clampAverage(3.5))
}
