package validator

import (
	"errors"
	"testing"
)

type emailInput struct {
	Identifier string `validate:"required,email"`
}

type phoneInput struct {
	PhoneNumber string `validate:"required,phone"`
}

type codeInput struct {
	Code string `validate:"required,passcode"`
}

func TestV10Validator(t *testing.T) {
	v, err := NewV10Validator()
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name    string
		in      any
		wantErr bool
		field   string
	}{
		{name: "valid email", in: emailInput{Identifier: "user@example.com"}},
		{name: "invalid email", in: emailInput{Identifier: "user-at-example"}, wantErr: true, field: "identifier"},
		{name: "valid e164", in: phoneInput{PhoneNumber: "+15551234567"}},
		{name: "phone without plus", in: phoneInput{PhoneNumber: "15551234567"}, wantErr: true, field: "phone_number"},
		{name: "phone leading zero", in: phoneInput{PhoneNumber: "+05551234567"}, wantErr: true, field: "phone_number"},
		{name: "phone too long", in: phoneInput{PhoneNumber: "+1234567890123456"}, wantErr: true, field: "phone_number"},
		{name: "valid code", in: codeInput{Code: "012345"}},
		{name: "short code", in: codeInput{Code: "12345"}, wantErr: true, field: "code"},
		{name: "signed code", in: codeInput{Code: "+12345"}, wantErr: true, field: "code"},
		{name: "non ascii digits", in: codeInput{Code: "١٢٣٤٥٦"}, wantErr: true, field: "code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.in)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want V10ValidationError", err)
			}
			if _, ok := verr.Values()[tt.field]; !ok {
				t.Fatalf("missing field %q in %v", tt.field, verr.Values())
			}
		})
	}
}
