package x11

import (
	"fmt"
	"time"
	"unsafe"

	"richclip/pkg/clipboard"
	"richclip/pkg/source"

	"github.com/google/uuid"
)

// pasteTimeout bounds how long Client waits for a SelectionNotify (or, in
// an INCR transfer, for each next chunk) before giving up on an
// unresponsive owner.
const pasteTimeout = 5 * time.Second

// Client implements clipboard.Reader by running a short-lived
// XConvertSelection exchange against whichever window currently owns the
// selection (C4 in the component design).
type Client struct{}

func (Client) List(role source.Role) ([]string, error) {
	conv, err := newConversation(role)
	if err != nil {
		return nil, err
	}
	defer conv.close()

	if conv.ownerIsNone() {
		return nil, nil
	}

	data, typ, err := conv.convert(conv.atoms.intern("TARGETS"))
	if err != nil {
		return nil, err
	}
	if typ != conv.atomAtom || len(data)%8 != 0 {
		return nil, fmt.Errorf("%w: malformed TARGETS reply", clipboard.ErrProtocol)
	}

	var names []string
	for i := 0; i+8 <= len(data); i += 8 {
		a := Atom(*(*uint64)(unsafe.Pointer(&data[i])))
		if n := conv.atoms.name(a); n != "" && n != "TARGETS" && n != "MULTIPLE" && n != "TIMESTAMP" && n != "SAVE_TARGETS" {
			names = append(names, n)
		}
	}
	return names, nil
}

func (Client) Fetch(role source.Role, mime string) ([]byte, error) {
	conv, err := newConversation(role)
	if err != nil {
		return nil, err
	}
	defer conv.close()

	if conv.ownerIsNone() {
		return nil, clipboard.ErrNoSuchMime
	}

	target := conv.atoms.intern(mime)
	data, typ, err := conv.convert(target)
	if err != nil {
		return nil, err
	}
	if typ == conv.atoms.intern("INCR") {
		return conv.receiveIncr()
	}
	return data, nil
}

// conversation holds the state for one XConvertSelection round trip: a
// scratch window, the atom table, and the selection being queried.
type conversation struct {
	display   Display
	window    Window
	atoms     *atomTable
	selection Atom
	propAtom  Atom
	atomAtom  Atom
	incrAtom  Atom
}

func newConversation(role source.Role) (*conversation, error) {
	display, err := openDisplay()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", clipboard.ErrNoDisplay, err)
	}
	atoms := newAtomTable(display)
	root := xDefaultRootWindow(display)
	window := xCreateSimpleWindow(display, root, 0, 0, 1, 1, 0, 0, 0)
	xSelectInput(display, window, propertyChangeMask)

	return &conversation{
		display:   display,
		window:    window,
		atoms:     atoms,
		selection: atoms.intern(selectionName(role)),
		// Suffixed with a fresh uuid so two concurrent `richclip paste`
		// invocations never share a property name, even if a future
		// change pools scratch windows instead of creating one per call.
		propAtom: atoms.intern("RICHCLIP_PASTE_" + uuid.NewString()),
		atomAtom: atoms.intern("ATOM"),
		incrAtom: atoms.intern("INCR"),
	}, nil
}

func (c *conversation) close() {
	xDestroyWindow(c.display, c.window)
	xCloseDisplay(c.display)
}

func (c *conversation) ownerIsNone() bool {
	return xGetSelectionOwner(c.display, c.selection) == 0
}

// convert performs one XConvertSelection request/SelectionNotify round
// trip and returns the resulting property's raw bytes and type atom.
func (c *conversation) convert(target Atom) ([]byte, Atom, error) {
	xDeleteProperty(c.display, c.window, c.propAtom)
	xConvertSelection(c.display, c.selection, target, c.propAtom, c.window, CurrentTime)
	xFlush(c.display)

	deadline := time.Now().Add(pasteTimeout)
	for {
		if time.Now().After(deadline) {
			return nil, 0, fmt.Errorf("%w: timed out waiting for selection owner", clipboard.ErrTimeout)
		}
		if xPending(c.display) == 0 {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		var ev XEvent
		xNextEvent(c.display, &ev)
		if ev.Type != evSelectionNotify {
			continue
		}
		notify := (*xSelectionEvent)(unsafe.Pointer(&ev))
		if notify.Property == None {
			return nil, 0, clipboard.ErrNoSuchMime
		}
		return c.readProperty(notify.Property)
	}
}

func (c *conversation) readProperty(property Atom) ([]byte, Atom, error) {
	var actualType Atom
	var actualFormat int32
	var nitems, bytesAfter uint64
	var prop *byte

	status := xGetWindowProperty(c.display, c.window, property, 0, 1<<20, 0, AnyPropertyType,
		&actualType, &actualFormat, &nitems, &bytesAfter, &prop)
	if status != successStatus {
		return nil, 0, fmt.Errorf("%w: XGetWindowProperty failed", clipboard.ErrProtocol)
	}
	defer func() {
		if prop != nil {
			xFree(unsafe.Pointer(prop))
		}
	}()

	byteLen := int(nitems) * formatWidth(actualFormat)
	data := make([]byte, byteLen)
	if byteLen > 0 {
		copy(data, unsafe.Slice(prop, byteLen))
	}
	xDeleteProperty(c.display, c.window, property)
	return data, actualType, nil
}

func formatWidth(format int32) int {
	switch format {
	case 8:
		return 1
	case 16:
		return 2
	case 32:
		return 8 // Xlib reports format-32 properties in C `long` units.
	default:
		return 1
	}
}

// receiveIncr waits for the sequence of PropertyNotify(NewValue) events
// that deliver an INCR transfer's chunks, concatenating
// each non-empty chunk until the owner signals completion with an empty
// property.
func (c *conversation) receiveIncr() ([]byte, error) {
	xDeleteProperty(c.display, c.window, c.propAtom)

	var buf []byte
	deadline := time.Now().Add(pasteTimeout)
	for {
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: incr transfer stalled", clipboard.ErrTimeout)
		}
		if xPending(c.display) == 0 {
			time.Sleep(2 * time.Millisecond)
			continue
		}
		var ev XEvent
		xNextEvent(c.display, &ev)
		if ev.Type != evPropertyNotify {
			continue
		}
		p := (*xPropertyEvent)(unsafe.Pointer(&ev))
		if p.Atom != c.propAtom || p.State != propertyNewValue {
			continue
		}
		chunk, _, err := c.readProperty(c.propAtom)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 {
			return buf, nil
		}
		buf = append(buf, chunk...)
		deadline = time.Now().Add(pasteTimeout)
	}
}
