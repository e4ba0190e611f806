package searchbox

import "github.com/cockroachdb/errors"

// Field names a searchable text attribute of a Document.
type Field string

const (
	// FieldTitle is the document title.
	FieldTitle Field = "title"
	// FieldSubtitle is the short line displayed under the title.
	FieldSubtitle Field = "subtitle"
	// FieldContent is the document body.
	FieldContent Field = "content"
)

// Fields lists the searchable fields in descending weight order.
var Fields = []Field{FieldTitle, FieldSubtitle, FieldContent}

// Document is one record of the precomputed search index.
type Document struct {
	// URI is the opaque reference the result links to.
	URI string `json:"uri" dynamodbav:"uri"`
	// Title is the document title.
	Title string `json:"title" dynamodbav:"title"`
	// Subtitle is an optional short description.
	Subtitle string `json:"subtitle" dynamodbav:"subtitle"`
	// Content is the full document text.
	Content string `json:"content" dynamodbav:"content"`
}

// Text returns the value of the given field, or "" for unknown fields.
func (d Document) Text(f Field) string {
	switch f {
	case FieldTitle:
		return d.Title
	case FieldSubtitle:
		return d.Subtitle
	case FieldContent:
		return d.Content
	default:
		return ""
	}
}

// ErrorCode represents specific error codes for search operations.
type ErrorCode int

const (
	// ErrCodeInvalidQuery is returned when the query cannot be parsed.
	ErrCodeInvalidQuery ErrorCode = iota + 1000

	// ErrCodeInvalidOption is returned when an invalid option is provided.
	ErrCodeInvalidOption

	// ErrCodeTimeout is returned when a search operation times out.
	ErrCodeTimeout

	// ErrCodeCanceled is returned when a search operation is canceled.
	ErrCodeCanceled

	// ErrCodeNotImplemented is returned when a feature is not implemented.
	ErrCodeNotImplemented

	// ErrCodeBackendUnavailable is returned when the search backend is unavailable.
	ErrCodeBackendUnavailable

	// ErrCodeIndexNotLoaded is returned when the document index has not been loaded.
	ErrCodeIndexNotLoaded
)

// String returns the human-readable string representation of the error code.
// This implements the fmt.Stringer interface.
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeInvalidQuery:
		return "invalid query"
	case ErrCodeInvalidOption:
		return "invalid option"
	case ErrCodeTimeout:
		return "operation timed out"
	case ErrCodeCanceled:
		return "operation canceled"
	case ErrCodeNotImplemented:
		return "not implemented"
	case ErrCodeBackendUnavailable:
		return "backend unavailable"
	case ErrCodeIndexNotLoaded:
		return "index not loaded"
	default:
		return "unknown error"
	}
}

// newErrorWithCode creates a new error with a code and message.
func newErrorWithCode(code ErrorCode, msg string) error {
	err := errors.New(msg)
	return errors.WithSecondaryError(err, errors.Newf("code: %d", int(code)))
}

// Common errors that can be returned by search operations.
var (
	// ErrInvalidQuery is returned when the query syntax is malformed.
	ErrInvalidQuery = newErrorWithCode(ErrCodeInvalidQuery, "searchbox: invalid query")

	// ErrInvalidOption is returned when an invalid option is provided.
	ErrInvalidOption = newErrorWithCode(ErrCodeInvalidOption, "searchbox: invalid option")

	// ErrTimeout is returned when a search operation times out.
	ErrTimeout = newErrorWithCode(ErrCodeTimeout, "searchbox: operation timed out")

	// ErrCanceled is returned when a search operation is canceled.
	ErrCanceled = newErrorWithCode(ErrCodeCanceled, "searchbox: operation canceled")

	// ErrNotImplemented is returned when a feature is not implemented.
	ErrNotImplemented = newErrorWithCode(ErrCodeNotImplemented, "searchbox: not implemented")

	// ErrBackendUnavailable is returned when the search backend is unavailable.
	ErrBackendUnavailable = newErrorWithCode(ErrCodeBackendUnavailable, "searchbox: backend unavailable")

	// ErrIndexNotLoaded is returned when no document index is available yet.
	ErrIndexNotLoaded = newErrorWithCode(ErrCodeIndexNotLoaded, "searchbox: index not loaded")
)

// InvalidQueryf returns a user-facing syntax error. The message is what gets
// shown to the user; errors.Is(err, ErrInvalidQuery) reports true.
func InvalidQueryf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrInvalidQuery)
}
