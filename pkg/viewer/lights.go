package viewer

import (
	"fmt"
	"image/color"

	"github.com/taigrr/roomview/pkg/debugui"
	"github.com/taigrr/roomview/pkg/math3d"
	"github.com/taigrr/roomview/pkg/scene"
)

// Light setup of the room.
const (
	AmbientIntensity     = 2.4
	DirectionalIntensity = 4.0
	HelperSize           = 0.2

	// SliderStep is the precision of every light slider.
	SliderStep = 0.001
)

var (
	// DirectionalPosition is where the directional light starts.
	DirectionalPosition = math3d.V3(1, 0.8, 0.3)
	// HelperColor is the colour of the directional light helper.
	HelperColor = color.RGBA{R: 255, A: 255}
)

// Lights are the scene lights the panel and renderer share.
type Lights struct {
	Ambient     *scene.AmbientLight
	Directional *scene.DirectionalLight
}

// addLights creates the ambient and directional lights plus the helper,
// attaches them to s and returns them.
func addLights(s *scene.Scene, shadowMapSize int) (Lights, *scene.DirectionalLightHelper, error) {
	white := math3d.V3(1, 1, 1)
	l := Lights{
		Ambient:     scene.NewAmbientLight(white, AmbientIntensity),
		Directional: scene.NewDirectionalLight(white, DirectionalIntensity),
	}
	l.Directional.SetPosition(DirectionalPosition)
	l.Directional.CastShadow = true
	l.Directional.Shadow.MapSize = shadowMapSize

	amb := scene.NewNode("ambient light")
	amb.Light = l.Ambient
	dir := scene.NewNode("directional light")
	dir.Light = l.Directional

	helper := scene.NewDirectionalLightHelper(l.Directional, HelperSize, HelperColor)
	hn := scene.NewNode("directional light helper")
	hn.Helper = helper

	for _, n := range []*scene.Node{amb, dir, hn} {
		if err := s.Add(n); err != nil {
			return Lights{}, nil, fmt.Errorf("add %s: %w", n.Name, err)
		}
	}
	return l, helper, nil
}

// BindDirectionalLight adds the "Directional light" folder with intensity
// and position sliders. Writes go through the light's clamping setters.
// The folder starts closed.
func BindDirectionalLight(p *debugui.Panel, l *scene.DirectionalLight) *debugui.Folder {
	f := p.AddFolder("Directional light")
	bind := func(name string, target *float64, lo, hi float64, apply func(float64)) {
		s, err := f.Add(name, target, lo, hi, SliderStep)
		if err != nil {
			return
		}
		s.OnChange = apply
	}

	bind("Intensity", &l.Intensity, 0, scene.MaxLightIntensity, l.SetIntensity)
	bind("Position X", &l.Position.X, -scene.MaxLightOffset, scene.MaxLightOffset, func(v float64) {
		l.SetPosition(math3d.V3(v, l.Position.Y, l.Position.Z))
	})
	bind("Position Y", &l.Position.Y, -scene.MaxLightOffset, scene.MaxLightOffset, func(v float64) {
		l.SetPosition(math3d.V3(l.Position.X, v, l.Position.Z))
	})
	bind("Position Z", &l.Position.Z, -scene.MaxLightOffset, scene.MaxLightOffset, func(v float64) {
		l.SetPosition(math3d.V3(l.Position.X, l.Position.Y, v))
	})
	f.Open = false
	return f
}
