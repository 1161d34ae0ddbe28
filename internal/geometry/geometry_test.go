package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-12

func TestUpReference(t *testing.T) {
	tests := []struct {
		name      string
		direction Vector3D
		want      Vector3D
	}{
		{"canonical up selects alternate", Vector3D{0, 0, 1}, Vector3D{1, 0, 0}},
		{"x axis", Vector3D{1, 0, 0}, Vector3D{0, 0, 1}},
		{"oblique", Vector3D{1, 2, 3}, Vector3D{0, 0, 1}},
		{"near up but not exact", Vector3D{1e-9, 0, 1}, Vector3D{0, 0, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UpReference(tt.direction))
		})
	}
}

func TestRotateBasisOrthonormal(t *testing.T) {
	directions := []Vector3D{
		{0, 0, 1},
		{1, 0, 0},
		{0, 1, 0},
		{1, 1, 1},
		{-2, 0.5, 3},
	}
	for _, d := range directions {
		r, err := RotateBasis(d, UpReference(d))
		require.NoError(t, err, "direction %+v", d)

		x := r.ApplyVector(Vector3D{1, 0, 0})
		y := r.ApplyVector(Vector3D{0, 1, 0})
		z := r.ApplyVector(Vector3D{0, 0, 1})

		assert.InDelta(t, 1, x.Norm(), tol)
		assert.InDelta(t, 1, y.Norm(), tol)
		assert.InDelta(t, 1, z.Norm(), tol)
		assert.InDelta(t, 0, x.Dot(y), tol)
		assert.InDelta(t, 0, y.Dot(z), tol)
		assert.InDelta(t, 0, z.Dot(x), tol)

		// Local +Z must map onto the viewing direction.
		want, err := d.Normalised()
		require.NoError(t, err)
		assert.InDelta(t, want.X, z.X, tol)
		assert.InDelta(t, want.Y, z.Y, tol)
		assert.InDelta(t, want.Z, z.Z, tol)
	}
}

func TestRotateBasisDegenerate(t *testing.T) {
	_, err := RotateBasis(Vector3D{}, Vector3D{0, 0, 1})
	assert.Error(t, err)

	_, err = RotateBasis(Vector3D{0, 0, 1}, Vector3D{0, 0, 2})
	assert.Error(t, err, "up parallel to forward")
}

func TestLookTransform(t *testing.T) {
	origin := Point3D{1, 2, 3}
	tr, err := LookTransform(origin, Vector3D{1, 0, 0})
	require.NoError(t, err)

	// The local origin lands on the observer origin.
	got := tr.ApplyPoint(Point3D{})
	assert.InDelta(t, origin.X, got.X, tol)
	assert.InDelta(t, origin.Y, got.Y, tol)
	assert.InDelta(t, origin.Z, got.Z, tol)

	// A step along local +Z moves along the viewing direction.
	ahead := tr.ApplyPoint(Point3D{0, 0, 1})
	assert.InDelta(t, origin.X+1, ahead.X, tol)
	assert.InDelta(t, origin.Y, ahead.Y, tol)
	assert.InDelta(t, origin.Z, ahead.Z, tol)
}

func TestVectorOps(t *testing.T) {
	v := Vector3D{3, 4, 0}
	assert.Equal(t, 5.0, v.Norm())

	u, err := v.Normalised()
	require.NoError(t, err)
	assert.InDelta(t, 1, u.Norm(), tol)

	c := Vector3D{1, 0, 0}.Cross(Vector3D{0, 1, 0})
	assert.Equal(t, Vector3D{0, 0, 1}, c)

	assert.True(t, Vector3D{}.IsZero())
	assert.False(t, Vector3D{0, 0, math.SmallestNonzeroFloat64}.IsZero())
}
