package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/me/quill/pkg/model"
)

// failed wraps a service error for display. Authorization failures get a
// hint; the stored session is left alone.
func failed(op string, err error) error {
	if model.IsAuthError(err) {
		return fmt.Errorf("%s: %w (run `quill login` if your session expired)", op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// userError shows the user-facing message for err while keeping err in the
// chain for errors.Is and errors.As.
type userError struct {
	msg string
	err error
}

func (e *userError) Error() string { return e.msg }
func (e *userError) Unwrap() error { return e.err }

func rejected(op string, err error) error {
	return &userError{msg: op + " failed: " + model.UserMessage(err), err: err}
}

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, s)
	}
	return id, nil
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
