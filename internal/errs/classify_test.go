package errs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/containerd/errdefs"
)

func TestClassify_APIError(t *testing.T) {
	tests := []struct {
		status       int
		expectedCode Code
	}{
		{400, "CLIENT_BAD_REQUEST"},
		{401, "CLIENT_UNAUTHORIZED"},
		{403, "CLIENT_FORBIDDEN"},
		{404, "CLIENT_NOT_FOUND"},
		{405, "CLIENT_METHOD_NOT_ALLOWED"},
		{408, "CLIENT_TIMEOUT"},
		{429, "CLIENT_RATE_LIMITED"},
		{500, "SERVER_INTERNAL_ERROR"},
		{502, "SERVER_BAD_GATEWAY"},
		{503, "SERVER_SERVICE_UNAVAILABLE"},
		{504, "SERVER_GATEWAY_TIMEOUT"},
		{507, CodeServerError},
		{418, CodeClientError},
		{302, CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			err := &APIError{
				Status:     tt.status,
				StatusText: "some status",
				Method:     "GET",
				URL:        "https://catalog.example.com/prototypes",
			}

			fault := Classify(err)

			if fault.Kind != KindHTTP {
				t.Errorf("expected kind http, got %s", fault.Kind)
			}
			if fault.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, fault.Code)
			}
			if fault.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, fault.Status)
			}
			if fault.Details["method"] != "GET" {
				t.Errorf("expected method detail, got %q", fault.Details["method"])
			}
			if fault.Details["url"] == "" {
				t.Error("expected url detail to be preserved")
			}
			if fault.Details["statusText"] != "some status" {
				t.Errorf("expected statusText detail, got %q", fault.Details["statusText"])
			}
		})
	}
}

func TestClassify_WrappedAPIError(t *testing.T) {
	err := fmt.Errorf("fetch page: %w", &APIError{Status: 404, Method: "GET", URL: "/prototypes/9"})

	fault := Classify(err)

	if fault.Kind != KindHTTP || fault.Code != "CLIENT_NOT_FOUND" {
		t.Errorf("expected http/CLIENT_NOT_FOUND, got %s/%s", fault.Kind, fault.Code)
	}
	if !errdefs.IsNotFound(fault) {
		t.Error("expected fault to satisfy errdefs.IsNotFound")
	}
}

func TestClassify_Timeout(t *testing.T) {
	fault := Classify(fmt.Errorf("fetch page: %w", context.DeadlineExceeded))

	if fault.Kind != KindTimeout {
		t.Errorf("expected kind timeout, got %s", fault.Kind)
	}
	if fault.Code != CodeTimeout {
		t.Errorf("expected code TIMEOUT, got %s", fault.Code)
	}
	if fault.Status != 0 {
		t.Errorf("expected no HTTP status, got %d", fault.Status)
	}
	if !errors.Is(fault, context.DeadlineExceeded) {
		t.Error("expected fault to match context.DeadlineExceeded")
	}
}

func TestClassify_NetErrorTimeout(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: &timeoutError{}}

	fault := Classify(err)

	if fault.Kind != KindTimeout || fault.Code != CodeTimeout {
		t.Errorf("expected timeout/TIMEOUT, got %s/%s", fault.Kind, fault.Code)
	}
}

func TestClassify_Abort(t *testing.T) {
	fault := Classify(fmt.Errorf("fetch page: %w", context.Canceled))

	if fault.Kind != KindAbort {
		t.Errorf("expected kind abort, got %s", fault.Kind)
	}
	if fault.Code != CodeAborted {
		t.Errorf("expected code ABORTED, got %s", fault.Code)
	}
	if fault.Status != 0 {
		t.Errorf("expected no HTTP status, got %d", fault.Status)
	}
	if !errors.Is(fault, context.Canceled) {
		t.Error("expected fault to match context.Canceled")
	}
}

func TestClassify_NetworkErrno(t *testing.T) {
	tests := []struct {
		errno        syscall.Errno
		expectedCode Code
	}{
		{syscall.ECONNREFUSED, "ECONNREFUSED"},
		{syscall.ECONNRESET, "ECONNRESET"},
		{syscall.EHOSTUNREACH, "EHOSTUNREACH"},
		{syscall.ENETUNREACH, "ENETUNREACH"},
		{syscall.EPIPE, "EPIPE"},
	}

	for _, tt := range tests {
		t.Run(string(tt.expectedCode), func(t *testing.T) {
			fault := Classify(fmt.Errorf("fetch page: %w", tt.errno))

			if fault.Kind != KindNetwork {
				t.Errorf("expected kind network, got %s", fault.Kind)
			}
			if fault.Code != tt.expectedCode {
				t.Errorf("expected code %s, got %s", tt.expectedCode, fault.Code)
			}
			if fault.Details["rawCode"] != string(tt.expectedCode) {
				t.Errorf("expected rawCode detail %s, got %q", tt.expectedCode, fault.Details["rawCode"])
			}
		})
	}
}

func TestClassify_UnmappedErrno(t *testing.T) {
	fault := Classify(fmt.Errorf("fetch page: %w", syscall.EADDRNOTAVAIL))

	want := fmt.Sprintf("ERRNO_%d", uint(syscall.EADDRNOTAVAIL))
	if fault.Kind != KindNetwork {
		t.Errorf("expected kind network, got %s", fault.Kind)
	}
	if fault.Code != Code(want) {
		t.Errorf("expected code %s, got %s", want, fault.Code)
	}
	if fault.Details["rawCode"] != want {
		t.Errorf("expected rawCode detail %s, got %q", want, fault.Details["rawCode"])
	}
}

func TestClassify_DNSNotFound(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "catalog.example.com", IsNotFound: true}

	fault := Classify(err)

	if fault.Kind != KindNetwork || fault.Code != "ENOTFOUND" {
		t.Errorf("expected network/ENOTFOUND, got %s/%s", fault.Kind, fault.Code)
	}
}

func TestClassify_OpaqueFetchFailed(t *testing.T) {
	fault := Classify(errors.New("fetch failed"))

	if fault.Kind != KindCORS {
		t.Errorf("expected kind cors, got %s", fault.Kind)
	}
	if fault.Code != CodeCORSBlocked {
		t.Errorf("expected code CORS_BLOCKED, got %s", fault.Code)
	}
}

func TestClassify_FetchFailedWithCauseIsNotCORS(t *testing.T) {
	fault := Classify(fmt.Errorf("fetch failed: %w", syscall.ECONNREFUSED))

	if fault.Kind == KindCORS {
		t.Error("a wrapped cause must not trigger the CORS heuristic")
	}
}

func TestClassify_Unknown(t *testing.T) {
	fault := Classify(errors.New("something odd happened"))

	if fault.Kind != KindUnknown || fault.Code != CodeUnknown {
		t.Errorf("expected unknown/UNKNOWN, got %s/%s", fault.Kind, fault.Code)
	}
	if fault.Message == "" {
		t.Error("expected a best-effort message")
	}
	if fault.Details == nil {
		t.Error("expected non-nil details")
	}
}

func TestClassify_Nil(t *testing.T) {
	fault := Classify(nil)

	if fault.Kind != KindUnknown || fault.Code != CodeUnknown {
		t.Errorf("expected unknown/UNKNOWN, got %s/%s", fault.Kind, fault.Code)
	}
	if fault.Message == "" {
		t.Error("expected a message even for nil input")
	}
}

func TestClassify_Deterministic(t *testing.T) {
	inputs := []error{
		&APIError{Status: 503, Method: "GET", URL: "/prototypes"},
		context.DeadlineExceeded,
		context.Canceled,
		syscall.ECONNRESET,
		errors.New("fetch failed"),
		errors.New("garbage"),
	}

	for _, in := range inputs {
		first := Classify(in)
		for i := 0; i < 10; i++ {
			again := Classify(in)
			if again.Kind != first.Kind || again.Code != first.Code {
				t.Errorf("classification of %v not deterministic: (%s,%s) vs (%s,%s)",
					in, first.Kind, first.Code, again.Kind, again.Code)
			}
		}
	}
}

// timeoutError implements net.Error with Timeout() == true.
type timeoutError struct{}

func (*timeoutError) Error() string   { return "i/o timeout" }
func (*timeoutError) Timeout() bool   { return true }
func (*timeoutError) Temporary() bool { return true }
