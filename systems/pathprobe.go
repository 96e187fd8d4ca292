package systems

import "github.com/pthm-cable/colony/components"

// straightEpsilon is how close two coordinates must be to count as aligned.
const straightEpsilon = 1e-4

// AxisXFirst reports whether a move should resolve the X axis before Z.
// The smaller absolute delta goes first; ties go to X. Route planning and
// movement share this rule so agents walk the route they were planned on.
func AxisXFirst(dx, dz float32) bool {
	return absf(dx) <= absf(dz)
}

// Waypoint returns the single bend point of the axis-aligned route from
// origin to target. ok is false when the route is a straight line.
func Waypoint(origin, target components.Position) (wp components.Position, ok bool) {
	dx := target.X - origin.X
	dz := target.Z - origin.Z
	if absf(dx) < straightEpsilon || absf(dz) < straightEpsilon {
		return components.Position{}, false
	}
	if AxisXFirst(dx, dz) {
		return components.Position{X: target.X, Z: origin.Z}, true
	}
	return components.Position{X: origin.X, Z: target.Z}, true
}
