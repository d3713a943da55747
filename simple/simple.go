// Package simple implements the "simple point iterator" conveniences
// layered on top of raw decoded records (spec §4.7 iter_simple): pose
// application, spherical↔Cartesian conversion, and intensity/color
// normalization, with best-effort coercion of non-fatal quirks instead of
// failing the whole stream (spec §7: "the simple iterator performs
// best-effort coercion ... by substituting zero values and recording a
// per-record invalid flag").
package simple

import (
	"math"

	"github.com/cry-inc/e57/codec"
	"github.com/cry-inc/e57/e57xml"
	"github.com/cry-inc/e57/prototype"
)

// Options enumerates the transform steps iter_simple may apply, each
// independently selectable (spec §4.7).
type Options struct {
	ApplyPose             bool
	CartesianToSpherical  bool
	SphericalToCartesian  bool
	IntensityToColor      bool
	SkipInvalid           bool
}

// Point is one transformed record: Cartesian xyz plus whichever optional
// attributes the source prototype and Options populated.
type Point struct {
	X, Y, Z float64

	HasSpherical          bool
	Range, Azimuth, Elevation float64

	HasColor    bool
	R, G, B     float64

	HasIntensity bool
	Intensity    float64

	Invalid bool
}

// Metadata carries the per-point-cloud context (pose, declared limits)
// that the raw record itself does not include.
type Metadata struct {
	Pose            *e57xml.Pose
	IntensityLimits *e57xml.IntensityLimits
	ColorLimits     *e57xml.ColorLimits
}

func fieldFloat(rec map[string]codec.Value, name string) (float64, bool) {
	v, ok := rec[name]
	if !ok {
		return 0, false
	}

	return v.Float(), true
}

func fieldInt(rec map[string]codec.Value, name string) (int64, bool) {
	v, ok := rec[name]
	if !ok {
		return 0, false
	}

	return v.Int(), true
}

// sphericalToCartesian converts (range, azimuth, elevation) to (x, y, z)
// per spec §4.7: x = r·cosφ·cosθ, y = r·cosφ·sinθ, z = r·sinφ.
func sphericalToCartesian(r, azimuth, elevation float64) (x, y, z float64) {
	cosEl := math.Cos(elevation)

	return r * cosEl * math.Cos(azimuth), r * cosEl * math.Sin(azimuth), r * math.Sin(elevation)
}

// cartesianToSpherical is the inverse. Argument order to atan2 is (y, x),
// not (x, y) — a historical bug in some implementations swapped this (spec
// §9); getting it backwards silently mirrors azimuth (θ becomes π/2 − θ),
// flipping the horizontal axis.
func cartesianToSpherical(x, y, z float64) (r, azimuth, elevation float64) {
	r = math.Sqrt(x*x + y*y + z*z)
	azimuth = math.Atan2(y, x)
	if r == 0 {
		return r, azimuth, 0
	}

	elevation = math.Asin(z / r)

	return r, azimuth, elevation
}

// applyPose rotates (x, y, z) by pose's unit quaternion then translates.
func applyPose(x, y, z float64, pose *e57xml.Pose) (float64, float64, float64) {
	qx, qy, qz, qw := pose.RotationX, pose.RotationY, pose.RotationZ, pose.RotationW

	// standard quaternion-vector rotation: v' = q * v * q^-1, expanded.
	ux := qw*x + qy*z - qz*y
	uy := qw*y + qz*x - qx*z
	uz := qw*z + qx*y - qy*x
	uw := -qx*x - qy*y - qz*z

	rx := uw*-qx + ux*qw + uy*-qz - uz*-qy
	ry := uw*-qy - ux*-qz + uy*qw + uz*-qx
	rz := uw*-qz + ux*-qy - uy*-qx + uz*qw

	return rx + pose.TranslationX, ry + pose.TranslationY, rz + pose.TranslationZ
}

// normalize maps raw into [0,1] given declared [min,max] limits, clamping
// and falling back to 0 when limits are absent, equal, or non-finite.
func normalize(raw, min, max float64) float64 {
	span := max - min
	if span == 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 0
	}

	v := (raw - min) / span
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}

	return v
}

// Transform converts one raw record into a Point, applying the requested
// options. It returns (point, true, nil) normally, or (zero, false, nil)
// when SkipInvalid drops the record.
func Transform(rec map[string]codec.Value, meta Metadata, opts Options) (Point, bool, error) {
	var pt Point

	x, hasX := fieldFloat(rec, prototype.NameCartesianX)
	y, hasY := fieldFloat(rec, prototype.NameCartesianY)
	z, hasZ := fieldFloat(rec, prototype.NameCartesianZ)
	haveCartesian := hasX && hasY && hasZ

	r, hasR := fieldFloat(rec, prototype.NameSphericalRange)
	az, hasAz := fieldFloat(rec, prototype.NameSphericalAzimuth)
	el, hasEl := fieldFloat(rec, prototype.NameSphericalElevation)
	haveSpherical := hasR && hasAz && hasEl

	switch {
	case haveCartesian:
		pt.X, pt.Y, pt.Z = x, y, z
		if opts.CartesianToSpherical {
			pt.Range, pt.Azimuth, pt.Elevation = cartesianToSpherical(x, y, z)
			pt.HasSpherical = true
		}
	case haveSpherical && opts.SphericalToCartesian:
		pt.X, pt.Y, pt.Z = sphericalToCartesian(r, az, el)
		pt.Range, pt.Azimuth, pt.Elevation = r, az, el
		pt.HasSpherical = true
	case haveSpherical:
		pt.Range, pt.Azimuth, pt.Elevation = r, az, el
		pt.HasSpherical = true
	}

	if opts.ApplyPose && meta.Pose != nil && (haveCartesian || (haveSpherical && opts.SphericalToCartesian)) {
		pt.X, pt.Y, pt.Z = applyPose(pt.X, pt.Y, pt.Z, meta.Pose)
	}

	if raw, ok := fieldFloat(rec, prototype.NameIntensity); ok {
		pt.HasIntensity = true

		if meta.IntensityLimits != nil {
			pt.Intensity = normalize(raw, meta.IntensityLimits.Minimum, meta.IntensityLimits.Maximum)
		}

		if opts.IntensityToColor && !pt.HasColor {
			pt.R, pt.G, pt.B = pt.Intensity, pt.Intensity, pt.Intensity
			pt.HasColor = true
		}
	}

	if redRaw, okR := fieldFloat(rec, prototype.NameColorRed); okR {
		greenRaw, _ := fieldFloat(rec, prototype.NameColorGreen)
		blueRaw, _ := fieldFloat(rec, prototype.NameColorBlue)

		pt.HasColor = true
		if meta.ColorLimits != nil {
			pt.R = normalize(redRaw, meta.ColorLimits.RedMinimum, meta.ColorLimits.RedMaximum)
			pt.G = normalize(greenRaw, meta.ColorLimits.GreenMinimum, meta.ColorLimits.GreenMaximum)
			pt.B = normalize(blueRaw, meta.ColorLimits.BlueMinimum, meta.ColorLimits.BlueMaximum)
		}
	}

	invalid := false
	if cs, ok := fieldInt(rec, prototype.NameCartesianInvalid); ok && cs != 0 {
		invalid = true
	}
	if ss, ok := fieldInt(rec, prototype.NameSphericalInvalid); ok && ss != 0 {
		invalid = true
	}
	if !isFinite3(pt.X, pt.Y, pt.Z) {
		invalid = true
	}
	pt.Invalid = invalid

	if opts.SkipInvalid && invalid {
		return Point{}, false, nil
	}

	return pt, true, nil
}

func isFinite3(x, y, z float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) &&
		!math.IsNaN(y) && !math.IsInf(y, 0) &&
		!math.IsNaN(z) && !math.IsInf(z, 0)
}
