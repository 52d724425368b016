//go:build darwin

package platform

import (
	"richclip/pkg/clipboard"
	"richclip/pkg/macos"
)

func detectDarwin() (clipboard.Backend, bool) {
	return clipboard.Backend{Name: "macos", Sink: macos.Owner{}, Reader: macos.Client{}}, true
}

func detectWayland() (clipboard.Backend, error) {
	return clipboard.Backend{}, clipboard.ErrNoDisplay
}

func detectX11(chunkSize int) (clipboard.Backend, error) {
	return clipboard.Backend{}, clipboard.ErrNoDisplay
}
