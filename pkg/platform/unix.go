//go:build !darwin

package platform

import (
	"richclip/pkg/clipboard"
	"richclip/pkg/wayland"
	"richclip/pkg/x11"
)

func detectDarwin() (clipboard.Backend, bool) {
	return clipboard.Backend{}, false
}

func detectWayland() (clipboard.Backend, error) {
	return clipboard.Backend{Name: "wayland", Sink: wayland.Owner{}, Reader: wayland.Client{}}, nil
}

func detectX11(chunkSize int) (clipboard.Backend, error) {
	owner := x11.NewOwner()
	if chunkSize > 0 {
		owner.ChunkSize = chunkSize
	}
	return clipboard.Backend{Name: "x11", Sink: owner, Reader: x11.Client{}}, nil
}
