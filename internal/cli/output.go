package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/donor-registry/internal/domain"
	"github.com/spec-kit/donor-registry/internal/service"
	apperrors "github.com/spec-kit/donor-registry/pkg/util"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // rejected input, duplicate, not found
	ExitCommandError = 2 // bad flags, unreachable store
)

// ExitError carries the exit code for a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as text, JSON or YAML.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Print writes v in the configured format.
func (f *OutputFormatter) Print(v any) error {
	switch f.Format {
	case "json":
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(f.Writer)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return f.printText(v)
}

func (f *OutputFormatter) printText(v any) error {
	switch val := v.(type) {
	case []domain.UserRecord:
		if len(val) == 0 {
			_, err := fmt.Fprintln(f.Writer, "no records")
			return err
		}
		tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tEMAIL\tPHONE\tBLOOD GROUP\tLOCATION")
		for _, rec := range val {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rec.FullName, rec.Email, rec.Phone, rec.BloodGroup, rec.Location)
		}
		return tw.Flush()
	case domain.UserRecord:
		return f.printText([]domain.UserRecord{val})
	case *service.ImportReport:
		_, err := fmt.Fprintf(f.Writer, "imported: %d\nduplicates: %d\ninvalid: %d\n", val.Imported, val.Duplicates, val.Invalid)
		return err
	default:
		_, err := fmt.Fprintln(f.Writer, val)
		return err
	}
}

// writeError prints err with any field details, one per line.
func writeError(w io.Writer, err error) {
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	msg := domainErr.Message
	if domainErr.HTTPStatus >= 500 {
		msg = domainErr.Error()
	}
	fmt.Fprintf(w, "Error [%s]: %s\n", domainErr.Code, msg)
	keys := make([]string, 0, len(domainErr.Details))
	for k := range domainErr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, domainErr.Details[k])
	}
}
