package controller

import (
	"net/http"

	"github.com/containerd/errdefs"

	"github.com/bassista/proto_cache/internal/errs"
)

// statusForFault maps a classified fault onto the HTTP status of the response.
func statusForFault(fault *errs.Fault) int {
	if fault == nil {
		return http.StatusInternalServerError
	}
	// Upstream HTTP faults surface as a gateway error; echoing the catalog's
	// own status would make them look like local ones.
	if fault.Status >= 400 {
		return http.StatusBadGateway
	}
	switch {
	case errdefs.IsInvalidArgument(fault):
		return http.StatusBadRequest
	case errdefs.IsNotFound(fault):
		return http.StatusNotFound
	case errdefs.IsUnauthorized(fault):
		return http.StatusUnauthorized
	case errdefs.IsPermissionDenied(fault):
		return http.StatusForbidden
	case errdefs.IsResourceExhausted(fault):
		return http.StatusInsufficientStorage
	case errdefs.IsUnavailable(fault):
		return http.StatusServiceUnavailable
	case errdefs.IsDeadlineExceeded(fault):
		return http.StatusGatewayTimeout
	case errdefs.IsCanceled(fault):
		return 499
	default:
		return http.StatusInternalServerError
	}
}
