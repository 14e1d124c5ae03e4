package camera

import (
	"errors"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-shade/common"
	"github.com/Carmen-Shannon/oxy-shade/engine/layout"
)

// ErrSingularProjection is returned when the view-projection matrix cannot be inverted,
// for example when near equals far or the aspect ratio is zero.
var ErrSingularProjection = errors.New("camera: view-projection matrix is singular")

type cameraImpl struct {
	mu *sync.Mutex

	up [3]float32

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes view/projection matrices
// from an attached CameraController each time Update is called.
type Camera interface {
	// Up returns the camera's up vector.
	//
	// Returns:
	//   - [3]float32: the up vector
	Up() [3]float32

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current world to clip space matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Position returns the world-space eye position read from the controller, or the
	// origin when no controller is attached.
	//
	// Returns:
	//   - [3]float32: the eye position
	Position() [3]float32

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	//
	// Returns:
	//   - CameraController: the attached controller or nil
	Controller() CameraController

	// ProjectedSpace builds the uniform shaders read for this camera. The screen-to-world
	// matrix maps pixel coordinates (origin top-left, y down) plus projected depth to world space.
	//
	// Parameters:
	//   - width: the render target width in pixels
	//   - height: the render target height in pixels
	//
	// Returns:
	//   - GPUProjectedSpace: the uniform value
	//   - error: ErrSingularProjection if the view-projection cannot be inverted
	ProjectedSpace(width, height int) (GPUProjectedSpace, error)

	// Update reads position/target from the controller and recomputes matrices.
	// If no controller is attached, this method does nothing.
	Update()

	// SetUp sets the camera's up vector.
	//
	// Parameters:
	//   - up: the up vector
	SetUp(up [3]float32)

	// SetFov sets the vertical field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - near: near plane distance
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	//
	// Parameters:
	//   - far: far plane distance
	SetFar(far float32)

	// SetController attaches a CameraController to the camera and recomputes matrices.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
// Matrices are identity until a controller is attached.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     [3]float32{0, 1, 0},
		fov:    60.0 * (math.Pi / 180.0),
		aspect: 1.0,
		near:   0.1,
		far:    100.0,
	}
	common.Identity(c.viewMatrix[:])
	common.Identity(c.projectionMatrix[:])
	common.Identity(c.viewProjectionMatrix[:])
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return [3]float32{}
	}
	return c.controller.Position()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) ProjectedSpace(width, height int) (GPUProjectedSpace, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var eye [3]float32
	if c.controller != nil {
		eye = c.controller.Position()
	}
	return NewProjectedSpace(c.viewProjectionMatrix, eye, width, height)
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(up [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// It reads position and target from the attached controller. This is a no-op when the controller is nil.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller == nil {
		return
	}
	common.LookAt(c.viewMatrix[:], c.controller.Position(), c.controller.Target(), c.up)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}

// NewProjectedSpace builds the ProjectedSpace uniform from a world to clip space matrix.
//
// Parameters:
//   - worldToProjection: the view-projection matrix (column-major)
//   - eye: the world-space origin of the projected space
//   - width: the render target width in pixels
//   - height: the render target height in pixels
//
// Returns:
//   - GPUProjectedSpace: the uniform value
//   - error: ErrSingularProjection if worldToProjection cannot be inverted
func NewProjectedSpace(worldToProjection [16]float32, eye [3]float32, width, height int) (GPUProjectedSpace, error) {
	var projectionToWorld [16]float32
	if !common.Invert4(projectionToWorld[:], worldToProjection[:]) {
		return GPUProjectedSpace{}, ErrSingularProjection
	}

	// pixel (x, y) to NDC: x*2/w - 1, 1 - y*2/h
	var screenToProjection [16]float32
	common.Identity(screenToProjection[:])
	screenToProjection[0] = 2 / float32(max(width, 1))
	screenToProjection[5] = -2 / float32(max(height, 1))
	screenToProjection[12] = -1
	screenToProjection[13] = 1

	var ps GPUProjectedSpace
	ps.WorldToProjection = layout.Float4x4(worldToProjection)
	common.Mul4(ps.ScreenToWorld[:], projectionToWorld[:], screenToProjection[:])
	ps.PositionWorld = layout.Float4{eye[0], eye[1], eye[2], 1}
	return ps, nil
}
