package meta

import (
	"errors"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	ErrConfigShape           = NewError("invalid configuration")
	ErrUndefinedKey          = NewError("undefined key")
	ErrKeyCycle              = NewError("key reference cycle")
	ErrDuplicateRoot         = NewError("multiple root classes")
	ErrMissingParent         = NewError("missing parent")
	ErrConflictingParentSpec = NewError("conflicting parent specification")
	ErrExpression            = NewError("expression evaluation failed")
	ErrUnknownItemReference  = NewError("unknown item reference")
	ErrRangeConfig           = NewError("invalid range")
	ErrUnsupportedOperation  = NewError("unsupported operation")
	ErrClassConflict         = NewError("instance name reused with different class")
	ErrIgnorePattern         = NewError("invalid ignore pattern")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg> (<attrs>): <err>"
	//   2. "<msg> (<attrs>)"
	//   3. "<err>"
	//   4. ""
	part := make([]string, 0, 2)

	if e.msg != "" {
		msg := e.msg
		if ctx := e.attrString(); ctx != "" {
			msg += " (" + ctx + ")"
		}

		part = append(part, msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// attrString renders the attached attributes as "key=value" pairs so that
// diagnostic context survives in plain error strings, not only in slog
// output.
func (e *Error) attrString() string {
	if len(e.attrs) == 0 {
		return ""
	}

	part := make([]string, 0, len(e.attrs))
	for _, a := range e.attrs {
		part = append(part, a.Key+"="+a.Value.String())
	}

	return strings.Join(part, " ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether e matches target, comparing sentinel identity by
// message so that wrapped and attributed copies still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	te := &Error{}
	if !errors.As(target, &te) {
		return false
	}

	return e.msg == te.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// wrapTemplate annotates err with the name of the template whose execution
// failed. Every per-element failure inside a template executor passes
// through here exactly once, so the template name always reaches the user.
func wrapTemplate(name string, err error) error {
	if err == nil {
		return nil
	}

	return NewError("template '" + name + "'").
		Wrap(err).
		With(slog.String("template", name))
}
