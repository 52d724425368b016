package x11

import (
	"context"
	"fmt"
	"time"
	"unsafe"

	"richclip/pkg/clipboard"
	"richclip/pkg/logger"
	"richclip/pkg/source"
)

// DefaultChunkSize is the INCR chunk size used when --chunk-size is not
// given: a large, platform-safe value.
const DefaultChunkSize = 256 * 1024

// AbandonedTransferTimeout bounds how long an INCR transfer may sit idle
// (no PropertyNotify) before it is dropped, and how long the owner waits
// for in-flight transfers to drain after SelectionClear.
const AbandonedTransferTimeout = 5 * time.Second

// incrOverhead is a conservative estimate of the non-payload bytes in an
// XChangeProperty request, used when deciding whether a payload fits in
// one direct transfer.
const incrOverhead = 32

// Owner implements clipboard.Sink: it takes ownership of an X11 selection
// and answers SelectionRequest/SelectionClear/PropertyNotify events until
// the selection is stolen or the context is cancelled.
type Owner struct {
	ChunkSize int

	display Display
	window  Window
	atoms   *atomTable

	selectionAtom Atom
	targetsAtom   Atom
	incrAtom      Atom
	multipleAtom  Atom
	timestampAtom Atom
	atomAtom      Atom
	integerAtom   Atom

	src          *source.ClipboardSource
	role         source.Role
	acquiredAt   Time
	maxRequest   int64
	transfers    map[incrKey]*incrTransfer
	lastActivity map[incrKey]time.Time
}

// NewOwner returns an Owner with the default INCR chunk size.
func NewOwner() *Owner {
	return &Owner{ChunkSize: DefaultChunkSize}
}

func selectionName(role source.Role) string {
	if role == source.Primary {
		return "PRIMARY"
	}
	return "CLIPBOARD"
}

// Publish implements clipboard.Sink.
func (o *Owner) Publish(ctx context.Context, src *source.ClipboardSource, role source.Role) error {
	display, err := openDisplay()
	if err != nil {
		return fmt.Errorf("%w: %v", clipboard.ErrNoDisplay, err)
	}
	o.display = display
	defer xCloseDisplay(o.display)

	o.atoms = newAtomTable(o.display)
	o.src = src
	o.role = role
	o.transfers = make(map[incrKey]*incrTransfer)
	o.lastActivity = make(map[incrKey]time.Time)
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}

	root := xDefaultRootWindow(o.display)
	o.window = xCreateSimpleWindow(o.display, root, 0, 0, 1, 1, 0, 0, 0)
	defer xDestroyWindow(o.display, o.window)

	o.selectionAtom = o.atoms.intern(selectionName(role))
	o.targetsAtom = o.atoms.intern("TARGETS")
	o.incrAtom = o.atoms.intern("INCR")
	o.multipleAtom = o.atoms.intern("MULTIPLE")
	o.timestampAtom = o.atoms.intern("TIMESTAMP")
	o.atoms.intern("_TIMESTAMP")
	o.atomAtom = o.atoms.intern("ATOM")
	o.integerAtom = o.atoms.intern("INTEGER")
	for _, m := range src.MimeTypes() {
		o.atoms.intern(m)
	}

	if units := xMaxRequestSize(o.display); units > 0 {
		o.maxRequest = units * 4
	} else {
		o.maxRequest = 16 * 1024 * 1024
	}

	xSetSelectionOwner(o.display, o.selectionAtom, o.window, CurrentTime)
	xFlush(o.display)
	if xGetSelectionOwner(o.display, o.selectionAtom) != o.window {
		return clipboard.ErrOwnershipDenied
	}
	o.acquiredAt = CurrentTime

	logger.Debug().Str("selection", selectionName(role)).Msg("x11: selection ownership acquired")

	return o.runEventLoop(ctx)
}

func (o *Owner) runEventLoop(ctx context.Context) error {
	var clearing bool
	var clearDeadline time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		o.reapAbandoned()

		if clearing && len(o.transfers) == 0 {
			logger.Debug().Msg("x11: selection lost, all transfers drained")
			return clipboard.ErrSelectionLost
		}
		if clearing && time.Now().After(clearDeadline) {
			logger.Debug().Int("abandoned", len(o.transfers)).Msg("x11: selection lost, draining timed out")
			return clipboard.ErrSelectionLost
		}

		if xPending(o.display) == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		var ev XEvent
		xNextEvent(o.display, &ev)

		switch ev.Type {
		case evSelectionRequest:
			o.handleSelectionRequest(asSelectionRequest(&ev), clearing)

		case evSelectionClear:
			sc := asSelectionClear(&ev)
			if sc.Selection == o.selectionAtom {
				clearing = true
				clearDeadline = time.Now().Add(AbandonedTransferTimeout)
				logger.Debug().Msg("x11: selection cleared by another client")
			}

		case evPropertyNotify:
			p := asProperty(&ev)
			if p.State == propertyDelete {
				o.advanceTransfer(p.Window, p.Atom)
			}
		}
	}
}

func (o *Owner) reapAbandoned() {
	deadline := time.Now().Add(-AbandonedTransferTimeout)
	for key, last := range o.lastActivity {
		if last.Before(deadline) {
			delete(o.transfers, key)
			delete(o.lastActivity, key)
			logger.Debug().Msg("x11: incr transfer abandoned by requestor, dropped")
		}
	}
}

func (o *Owner) handleSelectionRequest(req *xSelectionRequestEvent, clearing bool) {
	resp := xSelectionEvent{
		Type:      evSelectionNotify,
		Display:   req.Display,
		Requestor: req.Requestor,
		Selection: req.Selection,
		Target:    req.Target,
		Time:      req.Time,
		Property:  None,
	}

	switch {
	case req.Target == o.targetsAtom:
		o.writeTargets(req, &resp)

	case req.Target == o.timestampAtom:
		o.writeTimestamp(req, &resp)

	default:
		if mime := o.atoms.name(req.Target); mime != "" {
			if offer, ok := o.src.Lookup(mime); ok {
				if clearing {
					// Refuse to start new transfers once the selection has
					// been stolen; existing ones still drain.
					break
				}
				o.serveOffer(req, &resp, offer.Content, req.Target)
			}
		}
	}

	xSendEvent(o.display, req.Requestor, 0, 0, (*XEvent)(unsafe.Pointer(&resp)))
	xFlush(o.display)
}

func (o *Owner) writeTargets(req *xSelectionRequestEvent, resp *xSelectionEvent) {
	mimes := o.src.MimeTypes()
	targets := make([]Atom, 0, len(mimes)+1)
	targets = append(targets, o.targetsAtom)
	for _, m := range mimes {
		targets = append(targets, o.atoms.intern(m))
	}
	writeProperty32(o.display, req.Requestor, req.Property, o.atomAtom, targets)
	resp.Property = req.Property
}

func (o *Owner) writeTimestamp(req *xSelectionRequestEvent, resp *xSelectionEvent) {
	writeProperty32(o.display, req.Requestor, req.Property, o.integerAtom, []Atom{Atom(o.acquiredAt)})
	resp.Property = req.Property
}

func (o *Owner) serveOffer(req *xSelectionRequestEvent, resp *xSelectionEvent, payload []byte, target Atom) {
	threshold := o.ChunkSize
	if maxFit := int(o.maxRequest - incrOverhead); maxFit < threshold {
		threshold = maxFit
	}

	if len(payload) <= threshold {
		writeProperty8(o.display, req.Requestor, req.Property, target, payload)
		resp.Property = req.Property
		return
	}

	// INCR transfer: announce the true total length (the ICCCM permits
	// either the real size or zero here; a real size lets well-behaved
	// requestors pre-allocate and makes the advertised length directly
	// testable). Select PropertyChangeMask so we observe the requestor
	// deleting the property, register the transfer, then let
	// PropertyNotify drive it.
	writeProperty32(o.display, req.Requestor, req.Property, o.incrAtom, []Atom{Atom(len(payload))})
	xSelectInput(o.display, req.Requestor, propertyChangeMask)

	key := incrKey{requestor: req.Requestor, property: req.Property}
	o.transfers[key] = &incrTransfer{
		requestor: req.Requestor,
		property:  req.Property,
		target:    target,
		payload:   payload,
		chunkSize: o.ChunkSize,
	}
	o.lastActivity[key] = time.Now()

	resp.Property = req.Property
	logger.Debug().Int("bytes", len(payload)).Msg("x11: starting incr transfer")
}

func (o *Owner) advanceTransfer(window Window, property Atom) {
	key := incrKey{requestor: window, property: property}
	t, ok := o.transfers[key]
	if !ok {
		return
	}
	o.lastActivity[key] = time.Now()

	chunk := t.nextChunk()
	writeProperty8(o.display, t.requestor, t.property, t.target, chunk)
	xFlush(o.display)

	if len(chunk) == 0 {
		delete(o.transfers, key)
		delete(o.lastActivity, key)
		logger.Debug().Msg("x11: incr transfer complete")
	}
}

// writeProperty8 writes data to property with the given type atom, format
// 8, mode Replace. An empty data slice is handled without dereferencing a
// nil pointer.
func writeProperty8(display Display, w Window, property, typ Atom, data []byte) {
	if len(data) == 0 {
		var dummy byte
		xChangeProperty(display, w, property, typ, 8, PropModeReplace, &dummy, 0)
		return
	}
	xChangeProperty(display, w, property, typ, 8, PropModeReplace, &data[0], int32(len(data)))
}

// writeProperty32 writes a format-32 property. Xlib's public API expects
// format-32 elements sized as a C `long` (8 bytes on 64-bit Linux) even
// though the wire protocol packs them to 32 bits — Atom/Time are already
// that width, so we can hand the slice straight to XChangeProperty, the
// same convention the purego X11 clients in the example corpus use.
func writeProperty32(display Display, w Window, property, typ Atom, data []Atom) {
	if len(data) == 0 {
		var dummy byte
		xChangeProperty(display, w, property, typ, 32, PropModeReplace, &dummy, 0)
		return
	}
	xChangeProperty(display, w, property, typ, 32, PropModeReplace, (*byte)(unsafe.Pointer(&data[0])), int32(len(data)))
}
