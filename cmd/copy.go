package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"richclip/internal/daemon"
	"richclip/pkg/bulk"
	"richclip/pkg/clipboard"
	"richclip/pkg/config"
	"richclip/pkg/errors"
	"richclip/pkg/logger"
	"richclip/pkg/platform"
	"richclip/pkg/source"

	"github.com/spf13/cobra"
)

var (
	copyPrimary    bool
	copyForeground bool
	copyOneShot    bool
	copyTypes      []string
	copyChunkSize  int
)

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Publish a clipboard payload read from stdin",
	Long: `copy reads a bulk-encoded multi-MIME stream from stdin (see the wire
format in the bulk protocol section) and takes ownership of the selection,
or with --one-shot/--type reads stdin verbatim as a single payload.`,
	RunE: runCopy,
}

func init() {
	copyCmd.Flags().BoolVarP(&copyPrimary, "primary", "p", false, "Use the primary selection")
	copyCmd.Flags().BoolVar(&copyForeground, "foreground", false, "Do not detach from terminal")
	copyCmd.Flags().BoolVar(&copyOneShot, "one-shot", false, "Read stdin verbatim, publish under default or -t MIMEs")
	copyCmd.Flags().StringArrayVarP(&copyTypes, "type", "t", nil, "Add a MIME type (repeatable); implies --one-shot")
	copyCmd.Flags().IntVar(&copyChunkSize, "chunk-size", 0, "Override X11 INCR chunk size (bytes)")
}

func runCopy(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	role := source.Regular
	if copyPrimary {
		role = source.Primary
	}
	chunkSize := cfg.ChunkSize
	if copyChunkSize > 0 {
		chunkSize = copyChunkSize
	}
	foreground := cfg.Foreground || copyForeground

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeIO, "failed to read stdin", err)
	}

	var src *source.ClipboardSource
	if copyOneShot || len(copyTypes) > 0 {
		mimes := copyTypes
		if len(mimes) == 0 {
			mimes = cfg.OneShotMimes
		}
		src = source.OneShot(mimes, data)
	} else {
		src, err = bulk.Decode(bytes.NewReader(data))
		if err != nil {
			return errors.NewWithError(errors.ExitCodeProtocol, "failed to decode bulk stream", err)
		}
	}

	if foreground {
		return publishForeground(src, role, chunkSize)
	}
	return publishDetached(src, role, chunkSize)
}

// publishForeground runs the event loop inline, blocking until the
// selection is lost or an interrupt signal arrives.
func publishForeground(src *source.ClipboardSource, role source.Role, chunkSize int) error {
	backend, err := platform.Detect(chunkSize)
	if err != nil {
		return mapPublishError(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = backend.Sink.Publish(ctx, src, role)
	return mapPublishError(err)
}

// publishDetached bulk-encodes src and re-execs the binary as a detached
// __serve process that owns the selection after this process returns
// (internal/daemon.Spawn).
func publishDetached(src *source.ClipboardSource, role source.Role, chunkSize int) error {
	var buf bytes.Buffer
	if err := bulk.Encode(&buf, src); err != nil {
		return errors.NewWithError(errors.ExitCodeProtocol, "failed to encode bulk stream", err)
	}

	serveArgs := []string{}
	if role == source.Primary {
		serveArgs = append(serveArgs, "--primary")
	}
	if chunkSize > 0 {
		serveArgs = append(serveArgs, "--chunk-size", strconv.Itoa(chunkSize))
	}

	if err := daemon.Spawn(serveArgs, buf.Bytes()); err != nil {
		return errors.NewWithError(errors.ExitCodeGeneral, "failed to spawn clipboard owner process", err)
	}
	logger.Debug().Msg("copy: detached clipboard owner process started")
	return nil
}

func mapPublishError(err error) error {
	switch {
	case err == nil:
		return nil
	case clipboard.Is(err, context.Canceled):
		return nil
	case clipboard.Is(err, clipboard.ErrSelectionLost):
		return nil
	case clipboard.Is(err, clipboard.ErrNoDisplay):
		return errors.NewWithError(errors.ExitCodeNoDisplay, "no display available", err)
	case clipboard.Is(err, clipboard.ErrOwnershipDenied):
		return errors.NewWithError(errors.ExitCodeOwnership, "selection ownership denied", err)
	case clipboard.Is(err, clipboard.ErrProtocol):
		return errors.NewWithError(errors.ExitCodeProtocol, "clipboard protocol error", err)
	case clipboard.Is(err, clipboard.ErrIO):
		return errors.NewWithError(errors.ExitCodeIO, "clipboard i/o error", err)
	default:
		return errors.NewWithError(errors.ExitCodeGeneral, "copy failed", err)
	}
}
