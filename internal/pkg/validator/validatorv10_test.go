package validator

import (
	"errors"
	"strings"
	"testing"
)

type otpInput struct {
	Email    string `validate:"required,email"`
	Code     string `validate:"required,len=6,otpcode"`
	FullName string `validate:"omitempty,alphaspace"`
}

func TestV10Validator_Validate(t *testing.T) {
	v, err := NewV10Validator("en")
	if err != nil {
		t.Fatalf("NewV10Validator() error = %v", err)
	}

	tests := []struct {
		name       string
		in         otpInput
		wantFields []string
	}{
		{name: "valid", in: otpInput{Email: "a@b.test", Code: "012345"}},
		{name: "code letters", in: otpInput{Email: "a@b.test", Code: "12a456"}, wantFields: []string{"code"}},
		{name: "bad email and name", in: otpInput{Email: "nope", Code: "123456", FullName: "J0hn"}, wantFields: []string{"email", "full_name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			err := v.Validate(tt.in)

			// Assert
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr V10ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %T, want V10ValidationError", err)
			}
			for _, f := range tt.wantFields {
				if _, ok := verr.Values()[f]; !ok {
					t.Fatalf("missing field %q in %v", f, verr)
				}
			}
		})
	}
}

func TestV10Validator_CustomMessageLocales(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{locale: "en", want: "digits only"},
		{locale: "id", want: "hanya boleh berisi angka"},
		{locale: "fr", want: "digits only"},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			v, err := NewV10Validator(tt.locale)
			if err != nil {
				t.Fatalf("NewV10Validator() error = %v", err)
			}

			err = v.Validate(otpInput{Email: "a@b.test", Code: "abcdef"})

			var verr V10ValidationError
			if !errors.As(err, &verr) || !strings.Contains(verr["code"], tt.want) {
				t.Fatalf("code message = %q, want to contain %q", verr["code"], tt.want)
			}
		})
	}
}
