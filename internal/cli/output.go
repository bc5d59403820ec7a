package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "shiptrack/internal/errors"
)

var errPlaceholder = errors.New("database is not configured: set DB_URL and DB_KEY")

type output struct {
	format string
	w      io.Writer
}

func newOutput(format string, w io.Writer) *output {
	return &output{format: format, w: w}
}

// write renders v as indented JSON in json mode and the printf template
// otherwise.
func (o *output) write(v any, format string, args ...any) error {
	if o.format == "json" {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintf(o.w, format, args...)
	return err
}

// describe turns service errors into messages fit for an operator.
func describe(err error) error {
	if ve, ok := apperrors.IsValidationError(err); ok {
		parts := make([]string, len(ve.Details))
		for i, d := range ve.Details {
			parts[i] = d.Message
		}
		return fmt.Errorf("%s: %s", ve.Message, strings.Join(parts, "; "))
	}
	if _, ok := apperrors.IsDuplicateUsernameError(err); ok {
		return err
	}
	if se, ok := apperrors.IsStorageError(err); ok {
		return fmt.Errorf("database unavailable (%s): %w", se.Op, se.Cause)
	}
	return err
}
