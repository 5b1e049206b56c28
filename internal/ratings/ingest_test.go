package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdmissionWeight(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		n     int
		want  float64
	}{
		{"no recent same-value ratings", 10000, 0, 1.0},
		{"half the limit already used", 100, 50, 0.5},
		{"at the limit clamps to floor, not zero", 100, 100, 1.0 / 100},
		{"over the limit still clamps to the floor", 100, 150, 1.0 / 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, admissionWeight(tt.limit, tt.n), 1e-9)
		})
	}
}

func TestAdmissionWeightNeverExceedsOne(t *testing.T) {
	for n := -5; n < 20; n++ {
		w := admissionWeight(10, n)
		assert.LessOrEqual(t, w, 1.0)
		assert.Greater(t, w, 0.0, "weight must stay strictly positive (I2)")
	}
}
