// Package wayland implements the selection owner and paste client against
// the zwlr_data_control_v1 protocol, talking raw Wayland wire framing over
// the compositor's unix socket to carry an arbitrary multi-MIME
// source.ClipboardSource for both the regular and primary selections.
package wayland

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"richclip/pkg/logger"
)

var le = binary.LittleEndian

// Fixed, low-valued object IDs assigned by us (the client) at connection
// setup; new_id values created afterwards (sources, offers, devices) are
// handed out by conn.allocID starting above this range.
const (
	idDisplay  uint32 = 1
	idRegistry uint32 = 2
	idSeat     uint32 = 3
	idManager  uint32 = 4
)

const firstDynamicID uint32 = 16

// conn is a buffered Wayland client connection plus an incrementing
// object-id allocator and the bound seat/manager needed by both the owner
// and the paste client.
type conn struct {
	fd         int
	inBuf      []byte
	pendingFds []int
	nextID     uint32

	seatName, managerName   uint32
	seatFound, managerFound bool
}

// managerInterface is the one global this package binds. Version 2 of
// zwlr_data_control_manager_v1 added set_primary_selection/
// primary_selection alongside set_selection/selection on the same device,
// so a single manager serves both the regular and primary selections — no
// second protocol binding is needed.
const managerInterface = "zwlr_data_control_manager_v1"
const managerVersion = 2

func dial() (*conn, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	if runtimeDir == "" {
		return nil, fmt.Errorf("wayland: XDG_RUNTIME_DIR not set")
	}

	sockPath := filepath.Join(runtimeDir, display)
	fd, err := syscall.Socket(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		return nil, err
	}
	if err := syscall.Connect(fd, &syscall.SockaddrUnix{Name: sockPath}); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("wayland: connect %s: %w", sockPath, err)
	}
	return &conn{fd: fd, nextID: firstDynamicID}, nil
}

func (c *conn) close() {
	syscall.Close(c.fd)
}

func (c *conn) allocID() uint32 {
	id := c.nextID
	c.nextID++
	return id
}

// send writes a single Wayland request message.
func (c *conn) send(objectID uint32, opcode uint16, args []byte) error {
	size := uint16(8 + len(args))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], objectID)
	le.PutUint32(buf[4:], uint32(opcode)|uint32(size)<<16)
	copy(buf[8:], args)
	_, err := syscall.Write(c.fd, buf)
	return err
}

// recv reads the next complete event, surfacing any fd delivered alongside
// it via SCM_RIGHTS (ancillary data carries file descriptors for the
// receive/send requests, per the Wayland wire format).
func (c *conn) recv() (objectID uint32, opcode uint16, payload []byte, fd int, err error) {
	fd = -1
	for {
		if len(c.inBuf) >= 8 {
			sizeOpcode := le.Uint32(c.inBuf[4:8])
			size := int(sizeOpcode >> 16)
			if size >= 8 && len(c.inBuf) >= size {
				objectID = le.Uint32(c.inBuf[0:4])
				opcode = uint16(sizeOpcode & 0xffff)
				payload = make([]byte, size-8)
				copy(payload, c.inBuf[8:size])
				c.inBuf = c.inBuf[size:]
				if len(c.pendingFds) > 0 {
					fd = c.pendingFds[0]
					c.pendingFds = c.pendingFds[1:]
				}
				return
			}
		}

		buf := make([]byte, 4096)
		oob := make([]byte, syscall.CmsgSpace(4*8))
		n, oobn, _, _, recvErr := syscall.Recvmsg(c.fd, buf, oob, 0)
		if recvErr != nil {
			err = recvErr
			return
		}
		if n == 0 {
			err = fmt.Errorf("wayland: connection closed")
			return
		}
		c.inBuf = append(c.inBuf, buf[:n]...)

		if oobn > 0 {
			scms, parseErr := syscall.ParseSocketControlMessage(oob[:oobn])
			if parseErr == nil {
				for _, scm := range scms {
					rights, parseErr := syscall.ParseUnixRights(&scm)
					if parseErr == nil {
						c.pendingFds = append(c.pendingFds, rights...)
					}
				}
			}
		}
	}
}

func encodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	le.PutUint32(b, v)
	return b
}

// encodeString encodes a Wayland string argument: a uint32 byte length
// (including the trailing NUL), the bytes, then padding to 4-byte
// alignment.
func encodeString(s string) []byte {
	raw := append([]byte(s), 0)
	padded := (len(raw) + 3) &^ 3
	buf := make([]byte, 4+padded)
	le.PutUint32(buf[0:], uint32(len(raw)))
	copy(buf[4:], raw)
	return buf
}

func concat(slices ...[]byte) []byte {
	var total int
	for _, s := range slices {
		total += len(s)
	}
	out := make([]byte, 0, total)
	for _, s := range slices {
		out = append(out, s...)
	}
	return out
}

func decodeString(data []byte) (string, []byte, error) {
	if len(data) < 4 {
		return "", data, fmt.Errorf("wayland: short string length field")
	}
	length := int(le.Uint32(data[:4]))
	data = data[4:]
	if length == 0 {
		return "", data, nil
	}
	padded := (length + 3) &^ 3
	if len(data) < padded {
		return "", data, fmt.Errorf("wayland: short string data")
	}
	return string(data[:length-1]), data[padded:], nil
}

// bindGlobals requests the registry, syncs to drain the global
// announcements, and binds wl_seat plus the data-control manager.
func bindGlobals(c *conn) error {
	if err := c.send(idDisplay, 1 /*get_registry*/, encodeUint32(idRegistry)); err != nil {
		return err
	}
	syncCallback := c.allocID()
	if err := c.send(idDisplay, 0 /*sync*/, encodeUint32(syncCallback)); err != nil {
		return err
	}

	for {
		objectID, opcode, payload, fd, err := c.recv()
		if err != nil {
			return err
		}
		if fd >= 0 {
			syscall.Close(fd)
		}

		switch {
		case objectID == idRegistry && opcode == 0 /*global*/ :
			if len(payload) < 4 {
				continue
			}
			name := le.Uint32(payload[:4])
			iface, _, decErr := decodeString(payload[4:])
			if decErr != nil {
				continue
			}
			switch iface {
			case "wl_seat":
				c.seatName, c.seatFound = name, true
			case managerInterface:
				c.managerName, c.managerFound = name, true
			}

		case objectID == syncCallback && opcode == 0 /*done*/ :
			if !c.seatFound {
				return fmt.Errorf("wayland: wl_seat not found")
			}
			if !c.managerFound {
				return fmt.Errorf("wayland: %s not found (compositor may not support wlr-data-control)", managerInterface)
			}

			if err := c.send(idRegistry, 0 /*bind*/, concat(
				encodeUint32(c.seatName), encodeString("wl_seat"), encodeUint32(1), encodeUint32(idSeat),
			)); err != nil {
				return err
			}
			if err := c.send(idRegistry, 0 /*bind*/, concat(
				encodeUint32(c.managerName), encodeString(managerInterface), encodeUint32(managerVersion), encodeUint32(idManager),
			)); err != nil {
				return err
			}
			return nil
		}
	}
}

func logDebugf(format string, args ...interface{}) {
	logger.Debug().Msgf(format, args...)
}
