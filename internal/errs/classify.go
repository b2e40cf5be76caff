package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// statusCodes maps an exact upstream HTTP status to its stable code.
var statusCodes = map[int]Code{
	400: "CLIENT_BAD_REQUEST",
	401: "CLIENT_UNAUTHORIZED",
	403: "CLIENT_FORBIDDEN",
	404: "CLIENT_NOT_FOUND",
	405: "CLIENT_METHOD_NOT_ALLOWED",
	408: "CLIENT_TIMEOUT",
	429: "CLIENT_RATE_LIMITED",
	500: "SERVER_INTERNAL_ERROR",
	502: "SERVER_BAD_GATEWAY",
	503: "SERVER_SERVICE_UNAVAILABLE",
	504: "SERVER_GATEWAY_TIMEOUT",
}

// errnoNames maps low-level socket errors to their conventional POSIX names,
// which are preserved verbatim as fault codes.
var errnoNames = map[syscall.Errno]string{
	syscall.ECONNREFUSED: "ECONNREFUSED",
	syscall.ECONNRESET:   "ECONNRESET",
	syscall.ECONNABORTED: "ECONNABORTED",
	syscall.EHOSTUNREACH: "EHOSTUNREACH",
	syscall.ENETUNREACH:  "ENETUNREACH",
	syscall.ENETDOWN:     "ENETDOWN",
	syscall.EPIPE:        "EPIPE",
	syscall.ETIMEDOUT:    "ETIMEDOUT",
}

// Classify converts any error raised by the fetch collaborator into a fetch
// fault. It never panics and always yields a non-empty message and a non-nil
// details map. The match order is significant: structured upstream errors
// win over timeouts, timeouts over cancellation, cancellation over raw
// network codes, and the opaque "fetch failed" heuristic comes last before
// the unknown fallback.
func Classify(err error) *Fault {
	if err == nil {
		return newFault(OriginFetch, KindUnknown, CodeUnknown, "unknown fetch error")
	}

	// 1. Structured upstream error response.
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return classifyAPIError(err, apiErr)
	}

	// 2. Fetcher-enforced deadline, distinct from caller cancellation.
	if isTimeout(err) {
		f := newFault(OriginFetch, KindTimeout, CodeTimeout, err.Error())
		f.cause = err
		return f
	}

	// 3. Caller-driven cancellation.
	if errors.Is(err, context.Canceled) {
		f := newFault(OriginFetch, KindAbort, CodeAborted, err.Error())
		f.cause = err
		return f
	}

	// 4. Recognizable low-level network code, preserved verbatim.
	if code, ok := networkCode(err); ok {
		f := newFault(OriginFetch, KindNetwork, Code(code), err.Error())
		f.cause = err
		f.Details["rawCode"] = code
		return f
	}

	// 5. Opaque transport failure with no structured cause. Browsers surface
	// CORS and some network failures as this bare message.
	if strings.EqualFold(strings.TrimSpace(err.Error()), "fetch failed") && errors.Unwrap(err) == nil {
		f := newFault(OriginFetch, KindCORS, CodeCORSBlocked, err.Error())
		f.cause = err
		return f
	}

	// 6. Everything else.
	f := newFault(OriginFetch, KindUnknown, CodeUnknown, err.Error())
	f.cause = err
	return f
}

func classifyAPIError(cause error, apiErr *APIError) *Fault {
	code, ok := statusCodes[apiErr.Status]
	if !ok {
		switch {
		case apiErr.Status >= 500:
			code = CodeServerError
		case apiErr.Status >= 400:
			code = CodeClientError
		default:
			code = CodeUnknown
		}
	}

	f := newFault(OriginFetch, KindHTTP, code, apiErr.Error())
	f.Status = apiErr.Status
	f.class = classFor(KindHTTP, apiErr.Status)
	f.cause = cause
	f.Details["method"] = apiErr.Method
	f.Details["url"] = apiErr.URL
	f.Details["statusText"] = apiErr.StatusText
	f.Details["status"] = strconv.Itoa(apiErr.Status)
	return f
}

// isTimeout reports whether err represents an elapsed deadline rather than an
// explicit cancellation.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// networkCode extracts a raw connectivity code from the error chain.
func networkCode(err error) (string, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if name, ok := errnoNames[errno]; ok {
			return name, true
		}
		// Errnos without a conventional name still get a stable code, not
		// the human-readable message.
		return fmt.Sprintf("ERRNO_%d", uint(errno)), true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		// Matches how upstream SDKs report unresolvable hosts.
		if dnsErr.IsNotFound {
			return "ENOTFOUND", true
		}
		return "DNS_FAILURE", true
	}

	return "", false
}
