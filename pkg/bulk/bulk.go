// Package bulk implements the framed multi-MIME wire protocol used by
// "richclip copy" to carry several (MIME, content) payloads on a single
// input stream and publish them as one atomic clipboard offer.
//
// Framing:
//
//	[Magic:4 = 0x20 0x09 0x02 0x14][Version:1 = 0x00]
//	repeat:
//	  [SectionType:1 ∈ {'M','C'}][SectionLength:4 big-endian uint32][SectionData]
//
// 'M' sections accumulate into a pending MIME list; a following 'C'
// section emits an Offer from (pending mimes, content) and clears the
// pending list. EOF immediately after a complete section ends parsing
// successfully; EOF mid-section is ErrTruncated. Trailing 'M' sections
// with no following 'C' publish nothing.
package bulk

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"richclip/pkg/source"
)

// Magic is the 4-byte header every bulk stream must begin with.
var Magic = [4]byte{0x20, 0x09, 0x02, 0x14}

// Version is the only section-framing version this decoder understands.
const Version = 0x00

const (
	sectionMime    = 'M'
	sectionContent = 'C'
)

var (
	// ErrBadMagic is returned when the stream does not begin with Magic.
	ErrBadMagic = errors.New("bulk: bad magic")
	// ErrBadVersion is returned for an unrecognized version byte.
	ErrBadVersion = errors.New("bulk: unsupported version")
	// ErrTruncated is returned when EOF occurs mid-section.
	ErrTruncated = errors.New("bulk: truncated stream")
	// ErrUnexpectedContent is returned when a 'C' section appears with no
	// preceding 'M' section to supply its MIME list.
	ErrUnexpectedContent = errors.New("bulk: content section with no pending mime types")
	// ErrBadSectionType is returned for a section type other than 'M'/'C'.
	ErrBadSectionType = errors.New("bulk: unknown section type")
)

// Decode reads a framed bulk stream from r and returns the resulting
// frozen ClipboardSource. It never publishes a partial clipboard: any
// error aborts decoding without returning a usable source.
func Decode(r io.Reader) (*source.ClipboardSource, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrBadMagic
		}
		return nil, err
	}
	if header[0] != Magic[0] || header[1] != Magic[1] || header[2] != Magic[2] || header[3] != Magic[3] {
		return nil, ErrBadMagic
	}
	if header[4] != Version {
		return nil, ErrBadVersion
	}

	src := source.New()
	var pendingMimes []string

	for {
		var typLen [5]byte
		n, err := io.ReadFull(r, typLen[:])
		if err != nil {
			if errors.Is(err, io.EOF) && n == 0 {
				// Clean end of stream between sections.
				break
			}
			return nil, ErrTruncated
		}

		typ := typLen[0]
		length := binary.BigEndian.Uint32(typLen[1:5])

		data := make([]byte, length)
		if length > 0 {
			if _, err := io.ReadFull(r, data); err != nil {
				return nil, ErrTruncated
			}
		}

		switch typ {
		case sectionMime:
			pendingMimes = append(pendingMimes, string(data))
		case sectionContent:
			if len(pendingMimes) == 0 {
				return nil, ErrUnexpectedContent
			}
			if err := src.AddOffer(pendingMimes, data); err != nil {
				return nil, fmt.Errorf("bulk: %w", err)
			}
			pendingMimes = nil
		default:
			return nil, ErrBadSectionType
		}
	}

	src.Freeze()
	return src, nil
}

// Encode writes src as a bulk stream to w: one 'M' section per MIME entry
// of each offer followed by its 'C' content section, in offer order. It is
// the inverse of Decode and is used by tests and by any future producer
// that wants to emit a multi-offer stream.
func Encode(w io.Writer, src *source.ClipboardSource) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{Version}); err != nil {
		return err
	}
	for _, offer := range src.Offers() {
		for _, mime := range offer.Mimes {
			if err := writeSection(w, sectionMime, []byte(mime)); err != nil {
				return err
			}
		}
		if err := writeSection(w, sectionContent, offer.Content); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w io.Writer, typ byte, data []byte) error {
	var header [5]byte
	header[0] = typ
	binary.BigEndian.PutUint32(header[1:5], uint32(len(data)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	_, err := w.Write(data)
	return err
}
