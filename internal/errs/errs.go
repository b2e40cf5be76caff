// Package errs provides the closed failure taxonomy used across the snapshot
// pipeline. Every error that crosses the repository boundary is carried as a
// Fault with a stable (origin, kind, code) triple.
package errs

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"
)

// Origin identifies which stage of the pipeline produced a failure.
type Origin string

const (
	// OriginFetch marks failures raised while talking to the upstream catalog.
	OriginFetch Origin = "fetch"
	// OriginStore marks failures raised while replacing the snapshot.
	OriginStore Origin = "store"
	// OriginValidation marks caller-supplied arguments out of contract.
	OriginValidation Origin = "validation"
)

// Kind is the failure category.
type Kind string

const (
	// KindHTTP indicates the upstream returned a structured error response.
	KindHTTP Kind = "http"
	// KindNetwork indicates a low-level connectivity failure with a raw code.
	KindNetwork Kind = "network"
	// KindTimeout indicates the fetcher-enforced deadline elapsed.
	KindTimeout Kind = "timeout"
	// KindAbort indicates the caller cancelled the operation.
	KindAbort Kind = "abort"
	// KindCORS indicates an opaque transport failure with no metadata,
	// heuristically classified.
	KindCORS Kind = "cors"
	// KindUnknown indicates an unclassifiable fetch error.
	KindUnknown Kind = "unknown"
	// KindStorageLimit indicates the snapshot exceeded the byte ceiling.
	KindStorageLimit Kind = "storage_limit"
	// KindSerialization indicates size estimation itself failed.
	KindSerialization Kind = "serialization"
	// KindValidation indicates a caller argument out of contract.
	KindValidation Kind = "validation"
)

// Code is a stable machine-readable identifier for programmatic branching.
type Code string

const (
	CodeUnknown             Code = "UNKNOWN"
	CodeTimeout             Code = "TIMEOUT"
	CodeAborted             Code = "ABORTED"
	CodeCORSBlocked         Code = "CORS_BLOCKED"
	CodeClientError         Code = "CLIENT_ERROR"
	CodeServerError         Code = "SERVER_ERROR"
	CodeStorageLimit        Code = "STORAGE_LIMIT_EXCEEDED"
	CodeSerializationFailed Code = "SERIALIZATION_FAILED"
	CodeValidationFailed    Code = "VALIDATION_FAILED"
)

// DataState reports what happened to the snapshot during a failed mutation.
type DataState string

// DataStateUnchanged means the previous snapshot is still authoritative.
const DataStateUnchanged DataState = "unchanged"

// Fault is the structured failure value. Details is never nil so callers can
// index into it without a nil check.
type Fault struct {
	Origin    Origin            `json:"origin"`
	Kind      Kind              `json:"kind"`
	Code      Code              `json:"code"`
	Message   string            `json:"message"`
	Status    int               `json:"status,omitempty"`
	Details   map[string]string `json:"details"`
	DataState DataState         `json:"dataState,omitempty"`

	cause error
	class error
}

// Error implements the error interface.
func (f *Fault) Error() string {
	if f.Status > 0 {
		return fmt.Sprintf("%s/%s [%s, HTTP %d]: %s", f.Origin, f.Kind, f.Code, f.Status, f.Message)
	}
	return fmt.Sprintf("%s/%s [%s]: %s", f.Origin, f.Kind, f.Code, f.Message)
}

// Unwrap exposes the underlying cause plus the errdefs class sentinel, so
// errors.Is and the errdefs.Is* helpers both work on a Fault.
func (f *Fault) Unwrap() []error {
	out := make([]error, 0, 2)
	if f.cause != nil {
		out = append(out, f.cause)
	}
	if f.class != nil {
		out = append(out, f.class)
	}
	return out
}

// Cause returns the error the fault was classified from, if any.
func (f *Fault) Cause() error {
	return f.cause
}

func newFault(origin Origin, kind Kind, code Code, message string) *Fault {
	return &Fault{
		Origin:  origin,
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: map[string]string{},
		class:   classFor(kind, 0),
	}
}

// StorageLimit builds the fault returned when a snapshot write would exceed
// the configured byte ceiling. The previous snapshot stays authoritative.
func StorageLimit(message string, details map[string]string) *Fault {
	f := newFault(OriginStore, KindStorageLimit, CodeStorageLimit, message)
	f.DataState = DataStateUnchanged
	mergeDetails(f, details)
	return f
}

// Serialization builds the fault returned when snapshot size estimation fails.
func Serialization(message string, cause error) *Fault {
	f := newFault(OriginStore, KindSerialization, CodeSerializationFailed, message)
	f.DataState = DataStateUnchanged
	f.cause = cause
	return f
}

// StoreUnknown wraps an unexpected store failure.
func StoreUnknown(message string, cause error) *Fault {
	f := newFault(OriginStore, KindUnknown, CodeUnknown, message)
	f.DataState = DataStateUnchanged
	f.cause = cause
	return f
}

// Validation builds the fault returned for caller arguments out of contract.
// Unlike pipeline faults it is surfaced as a plain Go error.
func Validation(message string, details map[string]string) *Fault {
	f := newFault(OriginValidation, KindValidation, CodeValidationFailed, message)
	mergeDetails(f, details)
	return f
}

func mergeDetails(f *Fault, details map[string]string) {
	for k, v := range details {
		f.Details[k] = v
	}
}

// classFor maps a taxonomy kind (and HTTP status, when relevant) to the
// sentinel other packages can branch on with errdefs helpers or errors.Is.
func classFor(kind Kind, status int) error {
	switch kind {
	case KindHTTP:
		return classForStatus(status)
	case KindTimeout:
		return context.DeadlineExceeded
	case KindAbort:
		return context.Canceled
	case KindNetwork, KindCORS:
		return errdefs.ErrUnavailable
	case KindStorageLimit:
		return errdefs.ErrResourceExhausted
	case KindSerialization:
		return errdefs.ErrInternal
	case KindValidation:
		return errdefs.ErrInvalidArgument
	default:
		return errdefs.ErrUnknown
	}
}

func classForStatus(status int) error {
	switch status {
	case 400:
		return errdefs.ErrInvalidArgument
	case 401:
		return errdefs.ErrUnauthenticated
	case 403:
		return errdefs.ErrPermissionDenied
	case 404:
		return errdefs.ErrNotFound
	case 409:
		return errdefs.ErrConflict
	case 429:
		return errdefs.ErrResourceExhausted
	case 502, 503, 504:
		return errdefs.ErrUnavailable
	default:
		if status >= 500 {
			return errdefs.ErrInternal
		}
		return errdefs.ErrUnknown
	}
}
