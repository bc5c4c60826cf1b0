package marker

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

// vecTolerance is absolute; rotations leave ~1e-15 residue in components
// that should be exactly zero.
const vecTolerance = 1e-9

func assertVecNear(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], vecTolerance, "component %d: got %v, want %v", i, got, want)
	}
}
