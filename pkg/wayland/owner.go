package wayland

import (
	"context"
	"syscall"

	"richclip/pkg/clipboard"
	"richclip/pkg/source"
)

// setSelectionOpcode/setPrimarySelectionOpcode are two of the three
// zwlr_data_control_device_v1 requests (v2): set_selection(0),
// destroy(1), set_primary_selection(2). Which one Publish calls
// decides which selection role we take ownership of; destroy(1) is never
// sent here.
const (
	setSelectionOpcode        = 0
	setPrimarySelectionOpcode = 2
)

// Owner implements clipboard.Sink against zwlr_data_control_v1: it creates
// a data source, advertises every MIME the ClipboardSource carries, claims
// the selection, and blocks serving `send` requests until the compositor
// cancels the source or ctx is done.
type Owner struct{}

func (Owner) Publish(ctx context.Context, src *source.ClipboardSource, role source.Role) error {
	c, err := dial()
	if err != nil {
		return err
	}
	defer c.close()

	if err := bindGlobals(c); err != nil {
		return err
	}

	source_ := c.allocID()
	device := c.allocID()

	if err := c.send(idManager, 0 /*create_data_source*/, encodeUint32(source_)); err != nil {
		return err
	}
	for _, mime := range src.MimeTypes() {
		if err := c.send(source_, 0 /*offer*/, encodeString(mime)); err != nil {
			return err
		}
	}
	if err := c.send(idManager, 1 /*get_data_device*/, concat(encodeUint32(device), encodeUint32(idSeat))); err != nil {
		return err
	}

	setOp := uint16(setSelectionOpcode)
	if role == source.Primary {
		setOp = setPrimarySelectionOpcode
	}
	if err := c.send(device, setOp, encodeUint32(source_)); err != nil {
		return err
	}

	confirm := c.allocID()
	if err := c.send(idDisplay, 0 /*sync*/, encodeUint32(confirm)); err != nil {
		return err
	}
	if err := drainUntilDone(c, confirm); err != nil {
		return err
	}
	logDebugf("wayland: selection ownership acquired (role=%s)", role)

	events := make(chan waylandEvent, 8)
	errCh := make(chan error, 1)
	go readLoop(c, events, errCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			if err != nil {
				return err
			}
			return clipboard.ErrSelectionLost
		case ev := <-events:
			if ev.objectID != source_ {
				if ev.fd >= 0 {
					syscall.Close(ev.fd)
				}
				continue
			}
			switch ev.opcode {
			case 0: // send(mime_type, fd)
				mime, _, _ := decodeString(ev.payload)
				if ev.fd < 0 {
					continue
				}
				if offer, ok := src.Lookup(mime); ok {
					writeAll(ev.fd, offer.Content)
				}
				syscall.Close(ev.fd)
			case 1: // cancelled
				logDebugf("wayland: source cancelled by compositor")
				return clipboard.ErrSelectionLost
			}
		}
	}
}

// writeAll writes all of buf to fd, looping since syscall.Write to a pipe
// may accept fewer bytes than requested for a large payload.
func writeAll(fd int, buf []byte) {
	for len(buf) > 0 {
		n, err := syscall.Write(fd, buf)
		if err != nil {
			return
		}
		buf = buf[n:]
	}
}

type waylandEvent struct {
	objectID uint32
	opcode   uint16
	payload  []byte
	fd       int
}

// readLoop forwards every event off the wire onto events until recv
// errors, at which point it sends nil on errCh and exits. A clean close
// and a socket error are not told apart: the recv error itself is not
// reported, and Publish returns ErrSelectionLost for both. It runs on its
// own goroutine because conn.recv blocks in syscall.Recvmsg with no
// deadline support, so ctx cancellation is observed by Publish's select
// rather than inside the read itself.
func readLoop(c *conn, events chan<- waylandEvent, errCh chan<- error) {
	for {
		objectID, opcode, payload, fd, err := c.recv()
		if err != nil {
			errCh <- nil
			return
		}
		events <- waylandEvent{objectID, opcode, payload, fd}
	}
}

func drainUntilDone(c *conn, callback uint32) error {
	for {
		objectID, opcode, _, fd, err := c.recv()
		if err != nil {
			return err
		}
		if fd >= 0 {
			syscall.Close(fd)
		}
		if objectID == callback && opcode == 0 {
			return nil
		}
	}
}
