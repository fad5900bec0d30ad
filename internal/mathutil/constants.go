package mathutil

import "math"

// Preview camera matrices. BMD models are Z-up and left-handed; the preview
// image is Y-up with the camera looking down -Z.
var (
	// ModelFlip converts Z-up to Y-up: Rx(-90°)
	ModelFlip = RotX(math.Pi / -2)

	// MirrorX converts left-handed to right-handed: diag(-1, 1, 1)
	MirrorX = Mat3Diag(-1, 1, 1)

	// PreviewFront looks at the model from the front, slightly above.
	// MIRROR_X @ Rx(-10°) @ MODEL_FLIP
	PreviewFront = Mat3Mul(Mat3Mul(MirrorX, RotX(Deg2Rad(-10))), ModelFlip)

	// PreviewThreeQuarter adds a 35° turn around the vertical axis.
	PreviewThreeQuarter = Mat3Mul(Mat3Mul(Mat3Mul(MirrorX, RotX(Deg2Rad(-10))), RotY(Deg2Rad(35))), ModelFlip)
)

// PreviewView returns the camera matrix for a named view ("front" or
// "three-quarter"). Unknown names fall back to the three-quarter view.
func PreviewView(name string) Mat3 {
	if name == "front" {
		return PreviewFront
	}
	return PreviewThreeQuarter
}
