package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestRotor_MultiplyIsHamiltonProduct(t *testing.T) {
	i := NewRotor(0, 1, 0, 0)
	j := NewRotor(0, 0, 1, 0)
	k := NewRotor(0, 0, 0, 1)

	if got := i.Multiply(j); got != k {
		t.Errorf("i*j = %v, want k", got)
	}
	if got := j.Multiply(i); got != NewRotor(0, 0, 0, -1) {
		t.Errorf("j*i = %v, want -k", got)
	}
	if got := i.Multiply(i); got != NewRotor(-1, 0, 0, 0) {
		t.Errorf("i*i = %v, want -1", got)
	}
}

func TestRotor_ComplementIsInverseForUnitRotor(t *testing.T) {
	q := NewRotation(NewVec3(1, 2, 2).Normalize(), 0.7)
	if math.Abs(q.Norm()-1) > 1e-12 {
		t.Fatalf("Expected unit rotor, norm %f", q.Norm())
	}

	identity := q.Multiply(q.Complement())
	if math.Abs(identity.A-1) > 1e-12 || identity.Vec().Length() > 1e-12 {
		t.Errorf("q*conj(q) = %v, want identity", identity)
	}
}

func TestRotor_Normalize(t *testing.T) {
	q := NewRotor(1, 2, 3, 4).Normalize()
	if math.Abs(q.Norm()-1) > 1e-12 {
		t.Errorf("Expected unit norm, got %f", q.Norm())
	}
}

func TestRotor_MatchesMathGL(t *testing.T) {
	tests := []struct {
		name  string
		v     Vec3
		axis  Vec3
		angle float64
	}{
		{"camera yaw", NewVec3(0, 0, -1), NewVec3(0, 1, 0), math.Pi / 4},
		{"camera pitch", NewVec3(0, 0, -1), NewVec3(-1, 0, 0), -math.Pi / 6},
		{"oblique axis", NewVec3(0.2, -0.5, 0.8), NewVec3(1, 1, 0).Normalize(), 2.1},
		{"negative angle", NewVec3(1, 0, 0), NewVec3(0, 0, 1), -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.RotateAround(tt.axis, tt.angle)

			oracle := mgl64.QuatRotate(tt.angle, mgl64.Vec3{tt.axis.X, tt.axis.Y, tt.axis.Z})
			want := oracle.Rotate(mgl64.Vec3{tt.v.X, tt.v.Y, tt.v.Z})

			const tolerance = 1e-9
			if math.Abs(got.X-want[0]) > tolerance ||
				math.Abs(got.Y-want[1]) > tolerance ||
				math.Abs(got.Z-want[2]) > tolerance {
				t.Errorf("Expected %v, got %v", want, got)
			}
		})
	}
}
