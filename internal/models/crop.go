package models

import "github.com/phambaophuc/masscrop/internal/geometry"

type CropRequest struct {
	X      float64 `json:"x" binding:"min=0,max=100"`
	Y      float64 `json:"y" binding:"min=0,max=100"`
	Width  float64 `json:"width" binding:"required,min=5,max=100"`
	Height float64 `json:"height" binding:"required,min=5,max=100"`
}

func (r CropRequest) Region() geometry.CropRegion {
	return geometry.CropRegion{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// GestureStartRequest opens a move or resize gesture on the selected item.
type GestureStartRequest struct {
	Handle string  `json:"handle" binding:"required,oneof=move resize"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// GestureMoveRequest carries the pointer position and the rendered size of
// the editor container, both in screen pixels.
type GestureMoveRequest struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	ContainerWidth  float64 `json:"container_width" binding:"required,gt=0"`
	ContainerHeight float64 `json:"container_height" binding:"required,gt=0"`
}

type GestureResponse struct {
	State  string              `json:"state"`
	ItemID string              `json:"item_id,omitempty"`
	Region geometry.CropRegion `json:"region"`
}
