// Package x11 implements the X11 selection owner and paste client using
// direct Xlib calls loaded with purego — no cgo, the same approach
// aymanbagabas/go-nativeclipboard uses for its own X11 backend.
package x11

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Core Xlib types. Xlib represents all of these as opaque pointers or
// longs; purego only needs their size to match (uintptr on every
// architecture Xlib itself runs on).
type (
	Display uintptr
	Window  uintptr
	Atom    uintptr
	Time    uintptr
)

// Predefined values and event type numbers from <X11/X.h>.
const (
	None        Atom = 0
	CurrentTime Time = 0

	AnyPropertyType = 0

	PropModeReplace = 0

	successStatus = 0

	evKeyPress         = 2
	evPropertyNotify   = 28
	evSelectionClear   = 29
	evSelectionRequest = 30
	evSelectionNotify  = 31

	propertyDelete   = 1
	propertyNewValue = 0

	propertyChangeMask = 1 << 22
)

// XEvent is a union in C; this struct must be at least as large as the
// largest variant we read (XSelectionRequestEvent). We size it generously
// and reinterpret via unsafe.Pointer for the specific variant we need,
// exactly as the purego X11 clients in the corpus do.
type XEvent struct {
	Type int32
	pad  [23]uintptr
}

type xSelectionRequestEvent struct {
	Type      int32
	_         [4]byte
	Serial    uintptr
	SendEvent int32
	_         [4]byte
	Display   Display
	Owner     Window
	Requestor Window
	Selection Atom
	Target    Atom
	Property  Atom
	Time      Time
}

type xSelectionEvent struct {
	Type      int32
	_         [4]byte
	Serial    uintptr
	SendEvent int32
	_         [4]byte
	Display   Display
	Requestor Window
	Selection Atom
	Target    Atom
	Property  Atom
	Time      Time
}

type xSelectionClearEvent struct {
	Type      int32
	_         [4]byte
	Serial    uintptr
	SendEvent int32
	_         [4]byte
	Display   Display
	Window    Window
	Selection Atom
	Time      Time
}

type xPropertyEvent struct {
	Type      int32
	_         [4]byte
	Serial    uintptr
	SendEvent int32
	_         [4]byte
	Display   Display
	Window    Window
	Atom      Atom
	Time      Time
	State     int32
}

func asSelectionRequest(e *XEvent) *xSelectionRequestEvent {
	return (*xSelectionRequestEvent)(unsafe.Pointer(e))
}

func asSelectionClear(e *XEvent) *xSelectionClearEvent {
	return (*xSelectionClearEvent)(unsafe.Pointer(e))
}

func asProperty(e *XEvent) *xPropertyEvent {
	return (*xPropertyEvent)(unsafe.Pointer(e))
}

var (
	libX11 uintptr

	xOpenDisplay       func(displayName uintptr) Display
	xCloseDisplay      func(display Display) int32
	xDefaultRootWindow func(display Display) Window
	xCreateSimpleWindow func(display Display, parent Window, x, y int32, width, height, borderWidth uint32, border, background uintptr) Window
	xDestroyWindow     func(display Display, w Window) int32
	xInternAtom        func(display Display, name string, onlyIfExists int32) Atom
	xGetAtomName       func(display Display, atom Atom) uintptr
	xSetSelectionOwner func(display Display, selection Atom, owner Window, time Time)
	xGetSelectionOwner func(display Display, selection Atom) Window
	xNextEvent         func(display Display, event *XEvent)
	xPending           func(display Display) int32
	xChangeProperty    func(display Display, w Window, property, typ Atom, format, mode int32, data *byte, nelements int32) int32
	xSendEvent         func(display Display, w Window, propagate int32, eventMask int64, event *XEvent) int32
	xGetWindowProperty func(display Display, w Window, property Atom, longOffset, longLength int64, delete int32, reqType Atom, actualType *Atom, actualFormat *int32, nitems, bytesAfter *uint64, propReturn **byte) int32
	xFree              func(data unsafe.Pointer) int32
	xDeleteProperty    func(display Display, w Window, property Atom)
	xConvertSelection  func(display Display, selection, target, property Atom, requestor Window, time Time)
	xSelectInput       func(display Display, w Window, eventMask int64)
	xFlush             func(display Display) int32
	xMaxRequestSize    func(display Display) int64
)

var loaded bool

// ensureLoaded dlopen's libX11 and registers every symbol we use. It is
// idempotent and safe to call from every entry point (owner and client).
func ensureLoaded() error {
	if loaded {
		return nil
	}

	var err error
	for _, path := range []string{"libX11.so.6", "libX11.so"} {
		libX11, err = purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("x11: failed to load libX11 (install libx11-6 / libX11): %w", err)
	}

	purego.RegisterLibFunc(&xOpenDisplay, libX11, "XOpenDisplay")
	purego.RegisterLibFunc(&xCloseDisplay, libX11, "XCloseDisplay")
	purego.RegisterLibFunc(&xDefaultRootWindow, libX11, "XDefaultRootWindow")
	purego.RegisterLibFunc(&xCreateSimpleWindow, libX11, "XCreateSimpleWindow")
	purego.RegisterLibFunc(&xDestroyWindow, libX11, "XDestroyWindow")
	purego.RegisterLibFunc(&xInternAtom, libX11, "XInternAtom")
	purego.RegisterLibFunc(&xGetAtomName, libX11, "XGetAtomName")
	purego.RegisterLibFunc(&xSetSelectionOwner, libX11, "XSetSelectionOwner")
	purego.RegisterLibFunc(&xGetSelectionOwner, libX11, "XGetSelectionOwner")
	purego.RegisterLibFunc(&xNextEvent, libX11, "XNextEvent")
	purego.RegisterLibFunc(&xPending, libX11, "XPending")
	purego.RegisterLibFunc(&xChangeProperty, libX11, "XChangeProperty")
	purego.RegisterLibFunc(&xSendEvent, libX11, "XSendEvent")
	purego.RegisterLibFunc(&xGetWindowProperty, libX11, "XGetWindowProperty")
	purego.RegisterLibFunc(&xFree, libX11, "XFree")
	purego.RegisterLibFunc(&xDeleteProperty, libX11, "XDeleteProperty")
	purego.RegisterLibFunc(&xConvertSelection, libX11, "XConvertSelection")
	purego.RegisterLibFunc(&xSelectInput, libX11, "XSelectInput")
	purego.RegisterLibFunc(&xFlush, libX11, "XFlush")
	purego.RegisterLibFunc(&xMaxRequestSize, libX11, "XMaxRequestSize")

	loaded = true
	return nil
}

// openDisplay opens the display named by the DISPLAY environment variable
// (it passes a NULL name to XOpenDisplay, which means "use $DISPLAY").
func openDisplay() (Display, error) {
	if err := ensureLoaded(); err != nil {
		return 0, err
	}
	d := xOpenDisplay(0)
	if d == 0 {
		return 0, fmt.Errorf("x11: XOpenDisplay failed (is $DISPLAY set and an X server reachable?)")
	}
	return d, nil
}

// atomTable interns and caches every atom a session needs, keyed by name.
type atomTable struct {
	display Display
	byName  map[string]Atom
	byAtom  map[Atom]string
}

func newAtomTable(display Display) *atomTable {
	return &atomTable{
		display: display,
		byName:  make(map[string]Atom),
		byAtom:  make(map[Atom]string),
	}
}

func (t *atomTable) intern(name string) Atom {
	if a, ok := t.byName[name]; ok {
		return a
	}
	a := xInternAtom(t.display, name, 0)
	t.byName[name] = a
	t.byAtom[a] = name
	return a
}

// name resolves an atom back to its string, querying the server and
// caching the result if it wasn't interned locally (e.g. atoms created by
// another client).
func (t *atomTable) name(a Atom) string {
	if n, ok := t.byAtom[a]; ok {
		return n
	}
	ptr := xGetAtomName(t.display, a)
	if ptr == 0 {
		return ""
	}
	defer xFree(unsafe.Pointer(ptr))
	n := goString(ptr)
	t.byAtom[a] = n
	return n
}

// goString reads a NUL-terminated C string at ptr.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var buf []byte
	for i := 0; ; i++ {
		b := *(*byte)(unsafe.Pointer(ptr + uintptr(i)))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}
