package cmd

import (
	"fmt"
	"os"

	"richclip/pkg/clipboard"
	"richclip/pkg/errors"
	"richclip/pkg/platform"
	"richclip/pkg/source"

	"github.com/spf13/cobra"
)

var (
	pasteListTypes bool
	pasteType      string
	pastePrimary   bool
)

var pasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Read the current clipboard selection to stdout",
	Long: `paste fetches the current selection's content and writes it to stdout
verbatim (no added newline), or with --list-types prints the advertised
MIME types instead, one per line.`,
	RunE: runPaste,
}

func init() {
	pasteCmd.Flags().BoolVarP(&pasteListTypes, "list-types", "l", false, "Print advertised MIMEs only, one per line")
	pasteCmd.Flags().StringVarP(&pasteType, "type", "t", "", "Require this MIME type")
	pasteCmd.Flags().BoolVarP(&pastePrimary, "primary", "p", false, "Use the primary selection")
}

func runPaste(cmd *cobra.Command, args []string) error {
	role := source.Regular
	if pastePrimary {
		role = source.Primary
	}

	backend, err := platform.Detect(0)
	if err != nil {
		return mapReadError(err)
	}

	if pasteListTypes {
		mimes, err := backend.Reader.List(role)
		if err != nil {
			return mapReadError(err)
		}
		if backend.Name == "x11" {
			fmt.Println("TARGETS")
		}
		for _, m := range mimes {
			fmt.Println(m)
		}
		return nil
	}

	mime := pasteType
	if mime == "" {
		mimes, err := backend.Reader.List(role)
		if err != nil {
			return mapReadError(err)
		}
		if len(mimes) == 0 {
			return nil
		}
		mime = mimes[0]
	}

	data, err := backend.Reader.Fetch(role, mime)
	if err != nil {
		if clipboard.Is(err, clipboard.ErrNoSuchMime) {
			return nil
		}
		return mapReadError(err)
	}
	_, err = os.Stdout.Write(data)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeIO, "failed to write stdout", err)
	}
	return nil
}

func mapReadError(err error) error {
	switch {
	case err == nil:
		return nil
	case clipboard.Is(err, clipboard.ErrNoSuchMime):
		return nil
	case clipboard.Is(err, clipboard.ErrNoDisplay):
		return errors.NewWithError(errors.ExitCodeNoDisplay, "no display available", err)
	case clipboard.Is(err, clipboard.ErrTimeout):
		return errors.NewWithError(errors.ExitCodeTimeout, "clipboard owner did not respond", err)
	case clipboard.Is(err, clipboard.ErrProtocol):
		return errors.NewWithError(errors.ExitCodeProtocol, "clipboard protocol error", err)
	case clipboard.Is(err, clipboard.ErrIO):
		return errors.NewWithError(errors.ExitCodeIO, "clipboard i/o error", err)
	default:
		return errors.NewWithError(errors.ExitCodeGeneral, "paste failed", err)
	}
}
