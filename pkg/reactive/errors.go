package reactive

import (
	"errors"
	"fmt"

	rfxerrors "github.com/vango-dev/reflux/internal/errors"
)

var (
	// ErrNotStructured is returned when a value cannot be observed.
	ErrNotStructured = errors.New("reactive: value is not structured")

	// ErrInvalidWatchSource is returned by Watch for unsupported sources.
	ErrInvalidWatchSource = errors.New("reactive: invalid watch source")

	// ErrLoopClosed is returned when posting to a closed Loop.
	ErrLoopClosed = errors.New("reactive: loop closed")
)

// panicError converts a recovered panic into a coded error naming what panicked.
func panicError(code, subject string, recovered any) *rfxerrors.Error {
	if err, ok := recovered.(error); ok {
		return rfxerrors.New(code).WithDetail(subject).Wrap(err)
	}
	return rfxerrors.New(code).WithDetail(fmt.Sprintf("%s: %v", subject, recovered))
}
