//go:build !cgo && !windows && !darwin

package window

import (
	"context"
	"errors"

	"github.com/taigrr/roomview/pkg/viewer"
)

// ErrNoCgo is returned by Run in builds where ebiten cannot open a window.
var ErrNoCgo = errors.New("window host requires cgo (build with CGO_ENABLED=1)")

// Host is unavailable in this build; use the terminal or headless host.
type Host struct {
	Title string
}

// Run reports ErrNoCgo.
func (h *Host) Run(context.Context, *viewer.App) error {
	return ErrNoCgo
}
