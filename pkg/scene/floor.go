package scene

import (
	"math"

	"github.com/taigrr/roomview/pkg/models"
)

// Floor defaults.
const (
	FloorSize      = 10.0
	FloorColor     = "#444444"
	FloorMetalness = 0.0
	FloorRoughness = 0.5
)

// NewFloor builds the ground plane: a FloorSize square laid flat on y=0
// that receives shadows but casts none.
func NewFloor() *Node {
	mat := models.ColorMaterial("floor", FloorColor, FloorMetalness, FloorRoughness)
	n := NewNode("floor")
	n.Mesh = models.NewPlane("floor", FloorSize, FloorSize, mat)
	n.Rotation.X = -math.Pi / 2
	n.ReceiveShadow = true
	return n
}
