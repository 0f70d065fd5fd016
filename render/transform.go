package render

import "github.com/go-gl/mathgl/mgl32"

// Transform is an entity's world matrix.
type Transform struct {
	Matrix mgl32.Mat4
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{Matrix: mgl32.Ident4()}
}

// FromRotationTranslation rotates by degrees about axis, then translates.
func FromRotationTranslation(axis mgl32.Vec3, degrees float32, translation mgl32.Vec3) Transform {
	if axis.Len() == 0 {
		return Transform{Matrix: mgl32.Translate3D(translation.X(), translation.Y(), translation.Z())}
	}
	rotation := mgl32.QuatRotate(mgl32.DegToRad(degrees), axis.Normalize())
	return Transform{
		Matrix: mgl32.Translate3D(translation.X(), translation.Y(), translation.Z()).Mul4(rotation.Mat4()),
	}
}
