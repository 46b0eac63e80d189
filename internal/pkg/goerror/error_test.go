package goerror

import (
	"errors"
	"net/http"
	"testing"
)

func TestNewDomainKeepsSentinel(t *testing.T) {
	sentinel := errors.New("code mismatch")
	err := NewDomain(sentinel, "Invalid or expired passcode", CodeUnauthorized)

	if !errors.Is(err, sentinel) {
		t.Fatalf("errors.Is(err, sentinel) = false, want true")
	}

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("errors.As(*Error) = false")
	}
	if gerr.Msg() != "Invalid or expired passcode" {
		t.Fatalf("Msg() = %q", gerr.Msg())
	}
	if gerr.Type() != TypeBusiness {
		t.Fatalf("Type() = %s, want %s", gerr.Type(), TypeBusiness)
	}
	if gerr.StatusCode() != http.StatusUnauthorized {
		t.Fatalf("StatusCode() = %d", gerr.StatusCode())
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidFormat, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeTooManyRequest, http.StatusTooManyRequests},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeBadGateway, http.StatusBadGateway},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			err := NewBusiness("x", tt.code)
			var gerr *Error
			if !errors.As(err, &gerr) {
				t.Fatalf("not a *Error")
			}
			if got := gerr.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewInvalidInputFields(t *testing.T) {
	err := NewInvalidInput(nil, "identifier", "must be a valid email")

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("not a *Error")
	}
	if gerr.Fields()["identifier"] != "must be a valid email" {
		t.Fatalf("Fields() = %v", gerr.Fields())
	}

	odd := NewInvalidInput(nil, "only-key")
	if !errors.As(odd, &gerr) || gerr.Code() != CodeInvalidFormat {
		t.Fatalf("odd kv should produce invalid format")
	}
}
