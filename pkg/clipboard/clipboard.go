// Package clipboard declares the sentinel errors and backend capability
// interfaces shared by every platform implementation (pkg/x11,
// pkg/wayland, pkg/macos) and the platform dispatcher (pkg/platform).
//
// A backend implements Sink to take ownership of a selection and serve it
// to other clients, and Reader to enumerate and fetch another owner's
// selection. The dispatcher (pkg/platform) probes the host environment and
// returns one of each at startup; everything downstream of that — the
// bulk protocol decode, the CLI's copy/paste commands — is backend
// agnostic.
package clipboard

import (
	"context"
	"errors"

	"richclip/pkg/source"
)

// Error kinds from the protocol layer (X11/Wayland/macOS), each mapped by
// the CLI to a specific process exit code.
var (
	// ErrNoDisplay means no usable X11 or Wayland display handle was found.
	ErrNoDisplay = errors.New("clipboard: no display available")
	// ErrOwnershipDenied means another client already owns the selection
	// and refused to relinquish it.
	ErrOwnershipDenied = errors.New("clipboard: selection ownership denied")
	// ErrProtocol covers malformed or unexpected X11/Wayland protocol
	// traffic.
	ErrProtocol = errors.New("clipboard: protocol error")
	// ErrIO covers stdin/stdout/fd failures.
	ErrIO = errors.New("clipboard: i/o error")
	// ErrNoSuchMime means a paste -t request did not match any advertised
	// MIME. Per spec this is not a failure: callers exit 0 with empty
	// output.
	ErrNoSuchMime = errors.New("clipboard: no such mime type")
	// ErrTimeout means a paste gave up waiting on the selection owner (the
	// X11 client's SelectionNotify or next INCR chunk did not arrive in
	// time). An owner that sees an INCR transfer abandoned by its requestor
	// drops that transfer without returning this error.
	ErrTimeout = errors.New("clipboard: incr transfer timed out")
	// ErrSelectionLost means ownership was stolen (X11 SelectionClear) or
	// cancelled (Wayland cancelled event). This is normal termination for
	// a resident copy process.
	ErrSelectionLost = errors.New("clipboard: selection lost")
)

// Sink takes ownership of role's selection and serves src to other
// clients until it is claimed by someone else (X11/Wayland) or returns
// immediately having published the content (macOS, which has no concept
// of a resident owner).
type Sink interface {
	// Publish blocks, serving src for role until ownership is lost or ctx
	// is cancelled (e.g. by a terminating signal).
	Publish(ctx context.Context, src *source.ClipboardSource, role source.Role) error
}

// Reader enumerates and fetches another client's selection content.
type Reader interface {
	// List returns the MIME types currently advertised for role, in
	// advertised order. An empty, nil-error result means the selection is
	// unset.
	List(role source.Role) ([]string, error)
	// Fetch returns the bytes published under mime for role. When no offer
	// advertises mime (or the selection is unset) it returns an error
	// wrapping ErrNoSuchMime; callers should exit 0 with empty output, not
	// treat this as a failure.
	Fetch(role source.Role, mime string) ([]byte, error)
}

// Backend bundles the Sink and Reader a dispatcher selects for one
// platform.
type Backend struct {
	Name   string
	Sink   Sink
	Reader Reader
}

// Is reports whether err is, or wraps, one of this package's sentinel
// errors. It exists so callers that already import richclip/pkg/errors
// under the name "errors" don't need a second import alias just to reach
// the standard library's errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
