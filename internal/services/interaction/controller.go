// Package interaction turns pointer gestures on the crop editor into crop
// region updates.
package interaction

import (
	"errors"
	"fmt"

	"github.com/phambaophuc/masscrop/internal/geometry"
)

type State int

const (
	Idle State = iota
	Dragging
	Resizing
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	default:
		return "idle"
	}
}

// Handle identifies the part of the crop box a gesture started on.
type Handle string

const (
	HandleMove   Handle = "move"
	HandleResize Handle = "resize"
)

// Point is a pointer position in screen pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is the rendered size of the editor container in screen pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

var (
	ErrGestureActive = errors.New("gesture already in progress")
	ErrUnknownHandle = errors.New("unknown handle")
)

// Controller is the Idle/Dragging/Resizing state machine for one editor. It
// is not safe for concurrent use; callers serialize access.
type Controller struct {
	state       State
	start       Point
	snapshot    geometry.CropRegion
	current     geometry.CropRegion
	aspectRatio *float64
	commit      func(geometry.CropRegion)
}

// NewController returns an idle controller. commit, when non-nil, receives
// the final region each time a gesture ends.
func NewController(commit func(geometry.CropRegion)) *Controller {
	return &Controller{commit: commit}
}

func (c *Controller) State() State {
	return c.state
}

// Region returns the region as of the latest pointer move.
func (c *Controller) Region() geometry.CropRegion {
	return c.current
}

// Begin starts a gesture, capturing the pointer position and region.
func (c *Controller) Begin(handle Handle, pointer Point, region geometry.CropRegion, aspectRatio *float64) error {
	if c.state != Idle {
		return fmt.Errorf("%w: %s", ErrGestureActive, c.state)
	}

	switch handle {
	case HandleMove:
		c.state = Dragging
	case HandleResize:
		c.state = Resizing
	default:
		return fmt.Errorf("%w: %q", ErrUnknownHandle, handle)
	}

	c.start = pointer
	c.snapshot = region
	c.current = region
	c.aspectRatio = aspectRatio
	return nil
}

// Move applies a pointer move. Deltas are measured from the gesture start as
// a percentage of the container size. It reports false when idle.
func (c *Controller) Move(pointer Point, container Size) (geometry.CropRegion, bool) {
	if c.state == Idle || container.Width <= 0 || container.Height <= 0 {
		return c.current, false
	}

	dx := (pointer.X - c.start.X) / container.Width * geometry.MaxExtent
	dy := (pointer.Y - c.start.Y) / container.Height * geometry.MaxExtent

	switch c.state {
	case Dragging:
		c.current = geometry.ClampMove(c.snapshot, c.snapshot.X+dx, c.snapshot.Y+dy)
	case Resizing:
		c.current = geometry.ClampResize(c.snapshot, c.snapshot.Width+dx, c.snapshot.Height+dy, c.aspectRatio)
	}
	return c.current, true
}

// End finishes the gesture and commits the current region. Releasing the
// pointer always commits; there is no cancel.
func (c *Controller) End() (geometry.CropRegion, bool) {
	if c.state == Idle {
		return c.current, false
	}

	c.state = Idle
	if c.commit != nil {
		c.commit(c.current)
	}
	return c.current, true
}
