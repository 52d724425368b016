package cmd

import (
	"bytes"
	"context"
	"os"
	"os/signal"
	"syscall"

	"richclip/internal/daemon"
	"richclip/pkg/bulk"
	"richclip/pkg/errors"
	"richclip/pkg/platform"
	"richclip/pkg/source"

	"github.com/spf13/cobra"
)

var (
	servePrimary   bool
	serveChunkSize int
)

// serveCmd is the hidden re-exec target internal/daemon.Spawn starts:
// it reads the bulk-encoded source copy already prepared off its own
// stdin and runs the platform Sink's event loop in the foreground, since
// Setsid has already detached it from the original terminal.
var serveCmd = &cobra.Command{
	Use:    daemon.HandoffArg,
	Hidden: true,
	Short:  "Internal: serve a clipboard selection (do not call directly)",
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := daemon.ReadPayload(os.Stdin)
		if err != nil {
			return errors.NewWithError(errors.ExitCodeIO, "failed to read handoff payload", err)
		}
		src, err := bulk.Decode(bytes.NewReader(payload))
		if err != nil {
			return errors.NewWithError(errors.ExitCodeProtocol, "failed to decode handoff payload", err)
		}

		role := source.Regular
		if servePrimary {
			role = source.Primary
		}
		backend, err := platform.Detect(serveChunkSize)
		if err != nil {
			return mapPublishError(err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return mapPublishError(backend.Sink.Publish(ctx, src, role))
	},
}

func init() {
	serveCmd.Flags().BoolVarP(&servePrimary, "primary", "p", false, "Serve the primary selection")
	serveCmd.Flags().IntVar(&serveChunkSize, "chunk-size", 0, "Override X11 INCR chunk size (bytes)")
}
