//go:build darwin

// Package macos implements the selection owner and reader against
// NSPasteboard via direct Objective-C runtime calls loaded with purego,
// following aymanbagabas/go-nativeclipboard's clipboard_darwin.go. Unlike
// the X11 and Wayland backends, NSPasteboard has no concept of a resident
// owner serving requests on demand: writing declares every type up front
// and returns immediately, and macOS itself holds the bytes.
package macos

import (
	"context"
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/ebitengine/purego/objc"

	"richclip/pkg/clipboard"
	"richclip/pkg/source"
)

var (
	nsPasteboardClass objc.Class
	nsDataClass       objc.Class
	nsStringClass     objc.Class
	nsArrayClass      objc.Class

	selGeneralPasteboard  objc.SEL
	selClearContents      objc.SEL
	selDeclareTypesOwner  objc.SEL
	selSetDataForType     objc.SEL
	selDataForType        objc.SEL
	selTypes              objc.SEL
	selDataWithBytesLen   objc.SEL
	selBytes              objc.SEL
	selLength             objc.SEL
	selCount              objc.SEL
	selObjectAtIndex      objc.SEL
	selUTF8String         objc.SEL
	selStringWithUTF8     objc.SEL
	selArrayWithObject    objc.SEL
	selArrayByAddingArray objc.SEL

	loaded bool
)

func ensureLoaded() error {
	if loaded {
		return nil
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if _, err := purego.Dlopen("/System/Library/Frameworks/AppKit.framework/AppKit", purego.RTLD_NOW|purego.RTLD_GLOBAL); err != nil {
		return fmt.Errorf("macos: failed to load AppKit: %w", err)
	}
	if _, err := purego.Dlopen("/System/Library/Frameworks/Foundation.framework/Foundation", purego.RTLD_NOW|purego.RTLD_GLOBAL); err != nil {
		return fmt.Errorf("macos: failed to load Foundation: %w", err)
	}

	nsPasteboardClass = objc.GetClass("NSPasteboard")
	nsDataClass = objc.GetClass("NSData")
	nsStringClass = objc.GetClass("NSString")
	nsArrayClass = objc.GetClass("NSArray")

	selGeneralPasteboard = objc.RegisterName("generalPasteboard")
	selClearContents = objc.RegisterName("clearContents")
	selDeclareTypesOwner = objc.RegisterName("declareTypes:owner:")
	selSetDataForType = objc.RegisterName("setData:forType:")
	selDataForType = objc.RegisterName("dataForType:")
	selTypes = objc.RegisterName("types")
	selDataWithBytesLen = objc.RegisterName("dataWithBytes:length:")
	selBytes = objc.RegisterName("bytes")
	selLength = objc.RegisterName("length")
	selCount = objc.RegisterName("count")
	selObjectAtIndex = objc.RegisterName("objectAtIndex:")
	selUTF8String = objc.RegisterName("UTF8String")
	selStringWithUTF8 = objc.RegisterName("stringWithUTF8String:")
	selArrayWithObject = objc.RegisterName("arrayWithObject:")
	selArrayByAddingArray = objc.RegisterName("arrayByAddingObjectsFromArray:")

	loaded = true
	return nil
}

// nsString builds an NSString from a Go string. The pasteboard type for a
// MIME type is just that MIME string registered as a custom UTI-less
// pasteboard type name — NSPasteboard accepts any NSString as a type, not
// only its predefined constants, which is how we carry arbitrary MIME
// types without a UTI mapping table.
func nsString(s string) objc.ID {
	b := append([]byte(s), 0)
	return objc.ID(nsStringClass).Send(selStringWithUTF8, unsafe.Pointer(&b[0]))
}

func goString(ns objc.ID) string {
	if ns == 0 {
		return ""
	}
	ptr := ns.Send(selUTF8String)
	if ptr == 0 {
		return ""
	}
	return cString(uintptr(ptr))
}

func cString(ptr uintptr) string {
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

func generalPasteboard() objc.ID {
	return objc.ID(nsPasteboardClass).Send(selGeneralPasteboard)
}

// Owner implements clipboard.Sink. Publish declares every offer's MIME
// types then writes each one's bytes and returns — there is no event loop
// and ctx is only consulted before starting, matching NSPasteboard's
// always-on, system-owned model.
type Owner struct{}

func (Owner) Publish(ctx context.Context, src *source.ClipboardSource, role source.Role) error {
	if role == source.Primary {
		// macOS has no equivalent of X11/Wayland's primary selection;
		// writing to it is a silent no-op success rather than an error, so
		// callers scripting cross-platform copy -p don't need special-case
		// handling.
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := ensureLoaded(); err != nil {
		return fmt.Errorf("%w: %v", clipboard.ErrNoDisplay, err)
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pb := generalPasteboard()
	if pb == 0 {
		return fmt.Errorf("%w: NSPasteboard.generalPasteboard returned nil", clipboard.ErrIO)
	}

	mimes := src.MimeTypes()
	if len(mimes) == 0 {
		return nil
	}

	typeArray := objc.ID(nsArrayClass).Send(selArrayWithObject, nsString(mimes[0]))
	for _, m := range mimes[1:] {
		rest := objc.ID(nsArrayClass).Send(selArrayWithObject, nsString(m))
		typeArray = typeArray.Send(selArrayByAddingArray, rest)
	}

	pb.Send(selDeclareTypesOwner, typeArray, objc.ID(0))

	for _, mime := range mimes {
		offer, ok := src.Lookup(mime)
		if !ok {
			continue
		}
		var data objc.ID
		if len(offer.Content) > 0 {
			data = objc.ID(nsDataClass).Send(selDataWithBytesLen, unsafe.Pointer(&offer.Content[0]), uint64(len(offer.Content)))
		} else {
			data = objc.ID(nsDataClass).Send(selDataWithBytesLen, unsafe.Pointer(nil), uint64(0))
		}
		if data == 0 {
			return fmt.Errorf("%w: NSData allocation failed for %s", clipboard.ErrIO, mime)
		}
		if ok := objc.Send[bool](pb, selSetDataForType, data, nsString(mime)); !ok {
			return fmt.Errorf("%w: setData:forType: failed for %s", clipboard.ErrIO, mime)
		}
	}

	return nil
}

// Client implements clipboard.Reader against NSPasteboard.
type Client struct{}

func (Client) List(role source.Role) ([]string, error) {
	if role == source.Primary {
		return nil, nil
	}
	if err := ensureLoaded(); err != nil {
		return nil, fmt.Errorf("%w: %v", clipboard.ErrNoDisplay, err)
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pb := generalPasteboard()
	if pb == 0 {
		return nil, fmt.Errorf("%w: NSPasteboard.generalPasteboard returned nil", clipboard.ErrIO)
	}

	types := pb.Send(selTypes)
	if types == 0 {
		return nil, nil
	}
	count := objc.Send[uint64](types, selCount)
	names := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		item := objc.Send[objc.ID](types, selObjectAtIndex, i)
		names = append(names, goString(item))
	}
	return names, nil
}

func (Client) Fetch(role source.Role, mime string) ([]byte, error) {
	if role == source.Primary {
		return nil, clipboard.ErrNoSuchMime
	}
	if err := ensureLoaded(); err != nil {
		return nil, fmt.Errorf("%w: %v", clipboard.ErrNoDisplay, err)
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	pb := generalPasteboard()
	if pb == 0 {
		return nil, fmt.Errorf("%w: NSPasteboard.generalPasteboard returned nil", clipboard.ErrIO)
	}

	data := pb.Send(selDataForType, nsString(mime))
	if data == 0 {
		return nil, clipboard.ErrNoSuchMime
	}
	length := objc.Send[uint64](data, selLength)
	if length == 0 {
		return []byte{}, nil
	}
	bytesPtr := data.Send(selBytes)
	if bytesPtr == 0 {
		return nil, fmt.Errorf("%w: NSData.bytes returned nil", clipboard.ErrIO)
	}
	out := make([]byte, length)
	copy(out, unsafe.Slice((*byte)(unsafe.Pointer(bytesPtr)), length))
	return out, nil
}
