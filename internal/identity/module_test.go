package identity

import (
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/cache"
	"github.com/shandysiswandi/otpgate/internal/identity/outbound/db"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
)

func mustConfig(t *testing.T, yaml string) config.Config {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestNewOTPStore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		yaml    string
		check   func(otpauth.Store) bool
		wantErr bool
	}{
		{name: "default is postgres", yaml: "app: {}", check: func(s otpauth.Store) bool { _, ok := s.(*db.OTPStore); return ok }},
		{name: "redis", yaml: "modules:\n  identity:\n    otp:\n      store: Redis\n", check: func(s otpauth.Store) bool { _, ok := s.(*cache.OTPStore); return ok }},
		{name: "memory", yaml: "modules:\n  identity:\n    otp:\n      store: memory\n", check: func(s otpauth.Store) bool { _, ok := s.(*otpauth.MemoryStore); return ok }},
		{name: "unknown", yaml: "modules:\n  identity:\n    otp:\n      store: etcd\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dep := Dependency{
				Config:     mustConfig(t, tt.yaml),
				Policy:     password.NewProvider(password.Default()),
				Instrument: instrument.NewNoop(),
			}

			store, err := newOTPStore(dep, db.NewDB(nil, dep.Instrument))

			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("newOTPStore: %v", err)
			}
			if !tt.check(store) {
				t.Fatalf("unexpected store %T", store)
			}
		})
	}
}

func TestSendLimits(t *testing.T) {
	t.Parallel()

	got := sendLimits(mustConfig(t, "modules:\n  identity:\n    otp:\n      resend_cooldown_seconds: 30\n"))

	if got.Cooldown != 30*time.Second || got.Window != 15*time.Minute || got.MaxPerWindow != 5 {
		t.Fatalf("unexpected limits %+v", got)
	}
}
