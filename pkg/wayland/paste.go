package wayland

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"richclip/pkg/clipboard"
	"richclip/pkg/source"
)

// receiveTimeout bounds how long Fetch waits for the offering client to
// write to the pipe we hand it.
const receiveTimeout = 5 * time.Second

// Client implements clipboard.Reader against zwlr_data_control_v1: it
// binds the manager and device, waits for the compositor's
// selection/primary_selection event naming the current data_offer, reads
// its advertised MIME types, then (for Fetch) creates a pipe and issues
// receive.
type Client struct{}

func (Client) List(role source.Role) ([]string, error) {
	offer, c, err := currentOffer(role)
	if err != nil {
		return nil, err
	}
	defer c.close()
	if offer == nil {
		return nil, nil
	}
	return offer.mimes, nil
}

func (Client) Fetch(role source.Role, mime string) ([]byte, error) {
	offer, c, err := currentOffer(role)
	if err != nil {
		return nil, err
	}
	defer c.close()
	if offer == nil {
		return nil, clipboard.ErrNoSuchMime
	}
	found := false
	for _, m := range offer.mimes {
		if m == mime {
			found = true
			break
		}
	}
	if !found {
		return nil, clipboard.ErrNoSuchMime
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clipboard.ErrIO, err)
	}
	// receive(mime_type, fd): the fd argument travels only as SCM_RIGHTS
	// ancillary data, so this request is written with Sendmsg, not c.send.
	args := encodeString(mime)
	msg := make([]byte, 8+len(args))
	le.PutUint32(msg[0:], offer.id)
	le.PutUint32(msg[4:], uint32(0 /*receive*/)|uint32(len(msg))<<16)
	copy(msg[8:], args)
	if err := syscall.Sendmsg(c.fd, msg, syscall.UnixRights(int(w.Fd())), nil, 0); err != nil {
		w.Close()
		r.Close()
		return nil, err
	}
	w.Close() // our copy; the compositor now owns the write end via SCM_RIGHTS

	if err := c.send(idDisplay, 0 /*sync*/, encodeUint32(c.allocID())); err != nil {
		r.Close()
		return nil, err
	}

	data, err := readAllWithTimeout(r, receiveTimeout)
	r.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clipboard.ErrIO, err)
	}
	return data, nil
}

type dataOffer struct {
	id    uint32
	mimes []string
}

// currentOffer binds fresh manager/device objects, drains events until the
// compositor announces the offer for role (or confirms there is none), and
// returns it along with the still-open connection (closed by callers).
func currentOffer(role source.Role) (*dataOffer, *conn, error) {
	c, err := dial()
	if err != nil {
		return nil, nil, err
	}
	if err := bindGlobals(c); err != nil {
		c.close()
		return nil, nil, err
	}

	device := c.allocID()
	if err := c.send(idManager, 1 /*get_data_device*/, concat(encodeUint32(device), encodeUint32(idSeat))); err != nil {
		c.close()
		return nil, nil, err
	}

	confirm := c.allocID()
	if err := c.send(idDisplay, 0 /*sync*/, encodeUint32(confirm)); err != nil {
		c.close()
		return nil, nil, err
	}

	offers := map[uint32][]string{}
	var current *dataOffer
	wantOpcode := uint16(1) // selection
	if role == source.Primary {
		wantOpcode = 3 // primary_selection (v2); opcode 2 is "finished"
	}

	for {
		objectID, opcode, payload, fd, err := c.recv()
		if err != nil {
			c.close()
			return nil, nil, err
		}
		if fd >= 0 {
			syscall.Close(fd)
		}

		switch {
		case objectID == device && opcode == 0: // data_offer(id)
			if len(payload) < 4 {
				continue
			}
			offers[le.Uint32(payload[:4])] = nil

		case isOfferObject(offers, objectID) && opcode == 0: // offer(mime_type)
			mime, _, decErr := decodeString(payload)
			if decErr == nil {
				offers[objectID] = append(offers[objectID], mime)
			}

		case objectID == device && opcode == wantOpcode:
			if len(payload) < 4 || le.Uint32(payload[:4]) == 0 {
				// null offer id: selection is unset/cleared.
				current = nil
				continue
			}
			id := le.Uint32(payload[:4])
			current = &dataOffer{id: id, mimes: offers[id]}

		case objectID == confirm && opcode == 0: // sync done
			return current, c, nil
		}
	}
}

func isOfferObject(offers map[uint32][]string, id uint32) bool {
	_, ok := offers[id]
	return ok
}

// readAllWithTimeout reads r to EOF, giving up if EOF has not arrived
// within d of the call (guards against a misbehaving offeror that never
// writes or closes). d bounds the whole read, not the gap between reads.
func readAllWithTimeout(r *os.File, d time.Duration) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		data, err := io.ReadAll(r)
		done <- result{data, err}
	}()

	select {
	case res := <-done:
		return res.data, res.err
	case <-time.After(d):
		r.Close()
		res := <-done
		return res.data, res.err
	}
}
