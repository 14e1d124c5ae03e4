package camera

// CameraController owns the positional state (position, target) a Camera reads.
// The single implementation orbits the target on a sphere described by radius,
// azimuth and elevation. Preview renders step it with OrbitRight to produce turntable frames.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - [3]float32: world-space camera position
	Position() [3]float32

	// Target returns the look-at point.
	//
	// Returns:
	//   - [3]float32: world-space target position
	Target() [3]float32

	// SetTarget sets the look-at/pivot point and recomputes position from spherical coordinates.
	//
	// Parameters:
	//   - target: world-space coordinates
	SetTarget(target [3]float32)

	// OrbitLeft rotates the camera left around the target by one orbit step.
	OrbitLeft()

	// OrbitRight rotates the camera right around the target by one orbit step.
	OrbitRight()

	// Zoom adjusts the camera's distance by modifying orbit radius.
	// Positive delta zooms in (closer to target).
	//
	// Parameters:
	//   - delta: distance to move toward the target
	Zoom(delta float32)

	// Radius returns the current orbit radius (distance from target).
	//
	// Returns:
	//   - float32: current distance from target
	Radius() float32

	// SetRadius sets the orbit radius directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - radius: new distance from target
	SetRadius(radius float32)

	// Azimuth returns the current horizontal angle around the Y axis.
	//
	// Returns:
	//   - float32: azimuth in radians
	Azimuth() float32

	// SetAzimuth sets the horizontal angle directly and recomputes position.
	//
	// Parameters:
	//   - azimuth: new horizontal angle in radians
	SetAzimuth(azimuth float32)

	// Elevation returns the current vertical angle from the horizontal plane.
	//
	// Returns:
	//   - float32: elevation in radians
	Elevation() float32

	// SetElevation sets the vertical angle directly, clamped to min/max bounds.
	//
	// Parameters:
	//   - elevation: new vertical angle in radians
	SetElevation(elevation float32)
}
