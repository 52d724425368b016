package bulk

import (
	"bytes"
	"errors"
	"testing"

	"richclip/pkg/source"
)

func section(typ byte, data string) []byte {
	var buf bytes.Buffer
	buf.WriteByte(typ)
	var lenBuf [4]byte
	l := uint32(len(data))
	lenBuf[0] = byte(l >> 24)
	lenBuf[1] = byte(l >> 16)
	lenBuf[2] = byte(l >> 8)
	lenBuf[3] = byte(l)
	buf.Write(lenBuf[:])
	buf.WriteString(data)
	return buf.Bytes()
}

func stream(sections ...[]byte) []byte {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.WriteByte(Version)
	for _, s := range sections {
		buf.Write(s)
	}
	return buf.Bytes()
}

func TestDecodeTwoMimeOffer(t *testing.T) {
	raw := stream(
		section('M', "text/plain"),
		section('C', "GOOD"),
		section('M', "text/html"),
		section('C', "BAD"),
	)

	src, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	offers := src.Offers()
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
	if string(offers[0].Content) != "GOOD" || offers[0].Mimes[0] != "text/plain" {
		t.Fatalf("offer 0 mismatch: %+v", offers[0])
	}
	if string(offers[1].Content) != "BAD" || offers[1].Mimes[0] != "text/html" {
		t.Fatalf("offer 1 mismatch: %+v", offers[1])
	}

	got, ok := src.Lookup("text/html")
	if !ok || string(got.Content) != "BAD" {
		t.Fatalf("Lookup(text/html) = %+v, %v", got, ok)
	}

	wantTargets := []string{"text/plain", "text/html"}
	if gotTargets := src.MimeTypes(); !equalStrings(gotTargets, wantTargets) {
		t.Fatalf("MimeTypes() = %v, want %v", gotTargets, wantTargets)
	}
}

func TestDecodeMultiMimeOneOffer(t *testing.T) {
	raw := stream(
		section('M', "TypE"),
		section('M', "Faker"),
		section('C', "TestDaTA"),
	)

	src, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	offers := src.Offers()
	if len(offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offers))
	}
	if !equalStrings(offers[0].Mimes, []string{"TypE", "Faker"}) {
		t.Fatalf("mimes = %v", offers[0].Mimes)
	}
	if got, ok := src.Lookup("Faker"); !ok || string(got.Content) != "TestDaTA" {
		t.Fatalf("Lookup(Faker) = %+v, %v", got, ok)
	}
}

func TestDecodeTrailingMimeDiscarded(t *testing.T) {
	raw := stream(
		section('M', "text/plain"),
		section('C', "GOOD"),
		section('M', "text/html"), // no following 'C' — discarded
	)

	src, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(src.Offers()) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(src.Offers()))
	}
	if _, ok := src.Lookup("text/html"); ok {
		t.Fatalf("text/html should not have been published")
	}
}

func TestDecodeBadMagic(t *testing.T) {
	raw := append([]byte{0, 0, 0, 0, 0}, []byte("junk")...)
	if _, err := Decode(bytes.NewReader(raw)); !errors.Is(err, ErrBadMagic) {
		t.Fatalf("err = %v, want ErrBadMagic", err)
	}
}

func TestDecodeBadVersion(t *testing.T) {
	raw := append(append([]byte{}, Magic[:]...), 0x01)
	if _, err := Decode(bytes.NewReader(raw)); !errors.Is(err, ErrBadVersion) {
		t.Fatalf("err = %v, want ErrBadVersion", err)
	}
}

func TestDecodeTruncatedMidSection(t *testing.T) {
	raw := stream(section('M', "text/plain"))
	raw = raw[:len(raw)-3] // cut into the section data

	if _, err := Decode(bytes.NewReader(raw)); !errors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestDecodeContentWithoutMime(t *testing.T) {
	raw := stream(section('C', "orphan"))
	if _, err := Decode(bytes.NewReader(raw)); !errors.Is(err, ErrUnexpectedContent) {
		t.Fatalf("err = %v, want ErrUnexpectedContent", err)
	}
}

func TestDecodeEmptyAfterHeaderIsValid(t *testing.T) {
	raw := stream()
	src, err := Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !src.Empty() {
		t.Fatalf("expected empty source")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	src := source.New()
	if err := src.AddOffer([]string{"text/plain"}, []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := src.AddOffer([]string{"a", "b", "c"}, []byte("multi")); err != nil {
		t.Fatal(err)
	}
	src.Freeze()

	var buf bytes.Buffer
	if err := Encode(&buf, src); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	decoded, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(decoded.Offers()) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(decoded.Offers()))
	}
	if string(decoded.Offers()[1].Content) != "multi" {
		t.Fatalf("offer 1 content = %q", decoded.Offers()[1].Content)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
