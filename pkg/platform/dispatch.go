// Package platform probes the host environment and returns the
// clipboard.Backend appropriate to it: a darwin build always uses
// NSPasteboard; everywhere else, WAYLAND_DISPLAY selects the Wayland
// data-control backend and falls back to X11 selections.
package platform

import (
	"fmt"
	"os"

	"richclip/pkg/clipboard"
)

// Detect returns the Backend to use on this host, or clipboard.ErrNoDisplay
// if neither a Wayland nor an X11 display is reachable (and the build is
// not darwin). chunkSize configures the X11 backend's INCR chunk size (see
// --chunk-size); it is ignored by the other backends.
func Detect(chunkSize int) (clipboard.Backend, error) {
	if b, ok := detectDarwin(); ok {
		return b, nil
	}

	if os.Getenv("WAYLAND_DISPLAY") != "" {
		return detectWayland()
	}

	if os.Getenv("DISPLAY") != "" {
		return detectX11(chunkSize)
	}

	return clipboard.Backend{}, fmt.Errorf("%w: neither WAYLAND_DISPLAY nor DISPLAY is set", clipboard.ErrNoDisplay)
}
