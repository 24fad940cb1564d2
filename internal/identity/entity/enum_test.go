package entity

import "testing"

func TestParseOTPPurpose(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want OTPPurpose
	}{
		{in: "", want: OTPPurposePasswordReset},
		{in: "password_reset", want: OTPPurposePasswordReset},
		{in: "login", want: OTPPurposeLogin},
		{in: "LOGIN", want: OTPPurposeUnknown},
	}

	for _, tt := range tests {
		if got := ParseOTPPurpose(tt.in); got != tt.want {
			t.Fatalf("ParseOTPPurpose(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if tt.want != OTPPurposeUnknown && tt.in != "" && ParseOTPPurpose(tt.in).String() != tt.in {
			t.Fatalf("String() does not round trip %q", tt.in)
		}
	}
}

func TestUserStatus_Ensure(t *testing.T) {
	t.Parallel()

	if got := UserStatus(9).Ensure(); got != UserStatusUnknown {
		t.Fatalf("Ensure(9) = %v, want Unknown", got)
	}
	if got := UserStatusActive.Ensure(); got != UserStatusActive {
		t.Fatalf("Ensure(Active) = %v", got)
	}
}
