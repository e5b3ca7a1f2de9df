// Package resource holds the in-memory font, text and image providers the
// materializer and the exporters resolve handles against.
package resource

import "fmt"

// ErrorKind classifies a ResourceError.
type ErrorKind string

const (
	UnknownImage       ErrorKind = "unknown_image"
	UnknownFont        ErrorKind = "unknown_font"
	TextQueueExhausted ErrorKind = "text_queue_exhausted"
	TextQueueSurplus   ErrorKind = "text_queue_surplus"
	UnknownHandle      ErrorKind = "unknown_handle"
)

// ResourceError reports a reference that cannot be satisfied. Name is the
// offending image id, font name or handle, when there is one.
type ResourceError struct {
	Kind ErrorKind
	Name string
}

func (e *ResourceError) Error() string {
	switch e.Kind {
	case UnknownImage:
		return fmt.Sprintf("resource error: unknown image %q", e.Name)
	case UnknownFont:
		return fmt.Sprintf("resource error: unknown font %q", e.Name)
	case TextQueueExhausted:
		return "resource error: fewer resolved texts than text nodes"
	case TextQueueSurplus:
		return "resource error: more resolved texts than text nodes"
	case UnknownHandle:
		return fmt.Sprintf("resource error: unknown handle %s", e.Name)
	}
	return fmt.Sprintf("resource error: %s %s", e.Kind, e.Name)
}
