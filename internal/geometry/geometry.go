// Package geometry provides the point, vector and affine transform types used
// to place observers in the scene. Transforms are 4x4 homogeneous matrices
// backed by gonum.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Point3D is a position in 3D space, in metres.
type Point3D struct {
	X, Y, Z float64
}

// Vector3D is a direction or displacement in 3D space.
type Vector3D struct {
	X, Y, Z float64
}

// Sub returns the vector from q to p.
func (p Point3D) Sub(q Point3D) Vector3D {
	return Vector3D{p.X - q.X, p.Y - q.Y, p.Z - q.Z}
}

// Add returns the point displaced by v.
func (p Point3D) Add(v Vector3D) Point3D {
	return Point3D{p.X + v.X, p.Y + v.Y, p.Z + v.Z}
}

// Dot returns the scalar product of v and w.
func (v Vector3D) Dot(w Vector3D) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Cross returns the vector product v x w.
func (v Vector3D) Cross(w Vector3D) Vector3D {
	return Vector3D{
		v.Y*w.Z - v.Z*w.Y,
		v.Z*w.X - v.X*w.Z,
		v.X*w.Y - v.Y*w.X,
	}
}

// Scale returns v scaled by s.
func (v Vector3D) Scale(s float64) Vector3D {
	return Vector3D{v.X * s, v.Y * s, v.Z * s}
}

// Sub returns v - w.
func (v Vector3D) Sub(w Vector3D) Vector3D {
	return Vector3D{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Norm returns the Euclidean length of v.
func (v Vector3D) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// IsZero reports whether all components of v are exactly zero.
func (v Vector3D) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// Normalised returns the unit vector in the direction of v. It returns an
// error for a zero-length vector.
func (v Vector3D) Normalised() (Vector3D, error) {
	n := v.Norm()
	if n == 0 {
		return Vector3D{}, fmt.Errorf("cannot normalise zero-length vector")
	}
	return v.Scale(1 / n), nil
}

// Affine is a 4x4 homogeneous transform.
type Affine struct {
	m *mat.Dense
}

// Identity returns the identity transform.
func Identity() *Affine {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		m.Set(i, i, 1)
	}
	return &Affine{m: m}
}

// Translate returns a transform moving the origin to p.
func Translate(p Point3D) *Affine {
	t := Identity()
	t.m.Set(0, 3, p.X)
	t.m.Set(1, 3, p.Y)
	t.m.Set(2, 3, p.Z)
	return t
}

// RotateBasis returns a rotation aligning the local +Z axis with forward and
// the local +Y axis with the component of up orthogonal to forward. forward
// and up must be non-zero and not parallel.
func RotateBasis(forward, up Vector3D) (*Affine, error) {
	z, err := forward.Normalised()
	if err != nil {
		return nil, fmt.Errorf("rotate basis: forward vector: %w", err)
	}

	// Gram-Schmidt: remove the forward component from up.
	y := up.Sub(z.Scale(up.Dot(z)))
	y, err = y.Normalised()
	if err != nil {
		return nil, fmt.Errorf("rotate basis: up vector parallel to forward")
	}

	x := y.Cross(z)

	r := Identity()
	r.m.Set(0, 0, x.X)
	r.m.Set(1, 0, x.Y)
	r.m.Set(2, 0, x.Z)
	r.m.Set(0, 1, y.X)
	r.m.Set(1, 1, y.Y)
	r.m.Set(2, 1, y.Z)
	r.m.Set(0, 2, z.X)
	r.m.Set(1, 2, z.Y)
	r.m.Set(2, 2, z.Z)
	return r, nil
}

// Mul returns the composition a * b (b applied first).
func (a *Affine) Mul(b *Affine) *Affine {
	out := mat.NewDense(4, 4, nil)
	out.Mul(a.m, b.m)
	return &Affine{m: out}
}

// At returns the matrix element at row i, column j.
func (a *Affine) At(i, j int) float64 {
	return a.m.At(i, j)
}

// ApplyPoint transforms the point p.
func (a *Affine) ApplyPoint(p Point3D) Point3D {
	return Point3D{
		a.m.At(0, 0)*p.X + a.m.At(0, 1)*p.Y + a.m.At(0, 2)*p.Z + a.m.At(0, 3),
		a.m.At(1, 0)*p.X + a.m.At(1, 1)*p.Y + a.m.At(1, 2)*p.Z + a.m.At(1, 3),
		a.m.At(2, 0)*p.X + a.m.At(2, 1)*p.Y + a.m.At(2, 2)*p.Z + a.m.At(2, 3),
	}
}

// ApplyVector transforms the vector v (rotation only, no translation).
func (a *Affine) ApplyVector(v Vector3D) Vector3D {
	return Vector3D{
		a.m.At(0, 0)*v.X + a.m.At(0, 1)*v.Y + a.m.At(0, 2)*v.Z,
		a.m.At(1, 0)*v.X + a.m.At(1, 1)*v.Y + a.m.At(1, 2)*v.Z,
		a.m.At(2, 0)*v.X + a.m.At(2, 1)*v.Y + a.m.At(2, 2)*v.Z,
	}
}

// UpReference returns the up axis used to build an observation basis for the
// given viewing direction. A direction exactly along +Z would give a
// zero-length cross product against the canonical +Z up axis, so +X is used
// instead in that single case.
func UpReference(direction Vector3D) Vector3D {
	if direction.X == 0 && direction.Y == 0 && direction.Z == 1 {
		return Vector3D{1, 0, 0}
	}
	return Vector3D{0, 0, 1}
}

// LookTransform composes the placement transform for an observer at origin
// looking along direction: translate(origin) * rotate_basis(direction, up).
func LookTransform(origin Point3D, direction Vector3D) (*Affine, error) {
	r, err := RotateBasis(direction, UpReference(direction))
	if err != nil {
		return nil, err
	}
	return Translate(origin).Mul(r), nil
}
