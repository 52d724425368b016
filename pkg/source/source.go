// Package source holds the in-memory clipboard payload that every backend
// (X11, Wayland, macOS) publishes. A ClipboardSource is an ordered,
// append-only sequence of offers built by the bulk decoder or one-shot
// mode, then frozen before any backend borrows it.
package source

import "errors"

// ErrEmptyMimeList is returned when an offer is added with no MIME types.
var ErrEmptyMimeList = errors.New("source: offer has no mime types")

// ErrFrozen is returned when AddOffer is called after Freeze.
var ErrFrozen = errors.New("source: source is frozen")

// Role selects which selection a clipboard operation targets.
type Role int

const (
	// Regular maps to X11 CLIPBOARD and the regular selection of the
	// Wayland zwlr_data_control_device_v1 (set_selection/selection).
	Regular Role = iota
	// Primary maps to X11 PRIMARY and the primary selection of the same
	// zwlr_data_control_device_v1 (set_primary_selection/primary_selection).
	// The Wayland backend does not use wl_data_device or
	// zwp_primary_selection_device_manager_v1 for either role.
	Primary
)

func (r Role) String() string {
	if r == Primary {
		return "primary"
	}
	return "regular"
}

// DefaultOneShotMimes is published when one-shot mode is used without an
// explicit -t/--type list.
var DefaultOneShotMimes = []string{
	"text/plain",
	"text/plain;charset=utf-8",
	"TEXT",
	"STRING",
	"UTF8_STRING",
}

// Offer is one (mime-list, content) unit of a ClipboardSource. Content is
// never mutated once the offer is added.
type Offer struct {
	Mimes   []string
	Content []byte
}

// HasMime reports whether m is one of this offer's MIME types, using a
// case-sensitive exact match.
func (o Offer) HasMime(m string) bool {
	for _, candidate := range o.Mimes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ClipboardSource is the ordered list of offers produced by the bulk
// decoder (package bulk) or one-shot mode. Order is preserved end to end:
// it becomes the advertised target order on X11 TARGETS and the Wayland
// offer order.
type ClipboardSource struct {
	offers []Offer
	frozen bool
}

// New returns an empty, mutable ClipboardSource.
func New() *ClipboardSource {
	return &ClipboardSource{}
}

// OneShot builds a ClipboardSource holding exactly one offer: mimes (or
// DefaultOneShotMimes if empty) mapped to content. The result is frozen.
func OneShot(mimes []string, content []byte) *ClipboardSource {
	if len(mimes) == 0 {
		mimes = append([]string(nil), DefaultOneShotMimes...)
	}
	s := New()
	// AddOffer cannot fail here: mimes is always non-empty.
	_ = s.AddOffer(mimes, content)
	s.Freeze()
	return s
}

// AddOffer appends a new offer. mimes must be non-empty; duplicates within
// mimes are permitted (first occurrence wins on target-matching ties).
// Content is copied into the source's ownership and never mutated again.
func (s *ClipboardSource) AddOffer(mimes []string, content []byte) error {
	if s.frozen {
		return ErrFrozen
	}
	if len(mimes) == 0 {
		return ErrEmptyMimeList
	}
	frozenMimes := append([]string(nil), mimes...)
	frozenContent := append([]byte(nil), content...)
	s.offers = append(s.offers, Offer{Mimes: frozenMimes, Content: frozenContent})
	return nil
}

// Freeze marks the source immutable. Backends may only borrow a frozen
// source.
func (s *ClipboardSource) Freeze() {
	s.frozen = true
}

// Frozen reports whether Freeze has been called.
func (s *ClipboardSource) Frozen() bool {
	return s.frozen
}

// Offers returns the offers in insertion order. The returned slice must
// not be mutated by the caller.
func (s *ClipboardSource) Offers() []Offer {
	return s.offers
}

// Empty reports whether the source has no offers.
func (s *ClipboardSource) Empty() bool {
	return len(s.offers) == 0
}

// MimeTypes returns the union of every offer's MIME types, in first-
// appearance order. This is the order advertised by X11 TARGETS and by
// the Wayland zwlr_data_control_source_v1.offer calls.
func (s *ClipboardSource) MimeTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, o := range s.offers {
		for _, m := range o.Mimes {
			if seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// Lookup returns the first offer (in insertion order) advertising mime,
// matched case-sensitively. When multiple offers claim the same MIME, the
// first offer in order wins, per spec.
func (s *ClipboardSource) Lookup(mime string) (Offer, bool) {
	for _, o := range s.offers {
		if o.HasMime(mime) {
			return o, true
		}
	}
	return Offer{}, false
}
