package share

import (
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable means the platform has no usable clipboard
// (typically a headless session). Callers fall back to manual copy.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// Copier places a link where the user can paste it. Copy outcomes are
// reported separately from link generation: a link that minted fine but
// failed to copy is still a valid link.
type Copier interface {
	Copy(url string) error
}

// SystemCopier writes to the OS clipboard.
type SystemCopier struct{}

func (SystemCopier) Copy(url string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	if err := clipboard.WriteAll(url); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}

// FallbackCopier prints the link for manual selection when no clipboard
// exists.
type FallbackCopier struct {
	Out io.Writer
}

func (f FallbackCopier) Copy(url string) error {
	_, err := fmt.Fprintf(f.Out, "Copy this link manually:\n%s\n", url)
	return err
}

// CopyWithFallback tries the system clipboard and degrades to printing
// the link. The returned bool reports whether the clipboard took it.
func CopyWithFallback(url string, out io.Writer) (bool, error) {
	err := (SystemCopier{}).Copy(url)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrClipboardUnavailable) {
		return false, FallbackCopier{Out: out}.Copy(url)
	}
	return false, err
}
