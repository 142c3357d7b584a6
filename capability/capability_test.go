package capability

import (
	"errors"
	"testing"
)

func TestCanonical(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"CAP_SYS_BOOT", "cap_sys_boot", false},
		{"cap_net_admin", "cap_net_admin", false},
		{"sys_boot", "cap_sys_boot", false},
		{"  CAP_CHOWN ", "cap_chown", false},
		{"", "", true},
		{"cap_sys boot", "", true},
		{"cap_sys-boot", "", true},
	}

	for _, tt := range tests {
		got, err := Canonical(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Canonical(%q) expected error, got %q", tt.in, got)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("Canonical(%q) expected ErrInvalidName, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Canonical(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewSet(t *testing.T) {
	s, err := NewSet("CAP_SYS_BOOT", "cap_net_admin")
	if err != nil {
		t.Fatalf("NewSet() error: %v", err)
	}

	if s.Len() != 2 {
		t.Errorf("Expected 2 capabilities, got %d", s.Len())
	}

	if !s.Has("cap_sys_boot") {
		t.Error("Set should contain cap_sys_boot")
	}

	if !s.Has("CAP_NET_ADMIN") {
		t.Error("Has must canonicalize its argument")
	}

	if s.Has("cap_chown") {
		t.Error("Set should not contain cap_chown")
	}
}

func TestSet_NamesSorted(t *testing.T) {
	s := MustSet("cap_sys_boot", "cap_chown", "cap_net_admin")

	names := s.Names()
	want := []string{"cap_chown", "cap_net_admin", "cap_sys_boot"}
	if len(names) != len(want) {
		t.Fatalf("Expected %d names, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestSet_Empty(t *testing.T) {
	var s Set
	if !s.IsEmpty() {
		t.Error("Zero-value set should be empty")
	}
	if s.Has("cap_chown") {
		t.Error("Empty set contains nothing")
	}
	if s.String() != "" {
		t.Errorf("Empty set renders as empty string, got %q", s.String())
	}
}

func TestTriple_Granted(t *testing.T) {
	tr := Triple{
		Inheritable: MustSet("cap_sys_boot", "cap_chown"),
		Ambient:     MustSet("cap_sys_boot"),
		Bounding:    MustSet("cap_sys_boot", "cap_chown"),
	}

	granted := tr.Granted()
	if granted.Len() != 2 {
		t.Errorf("Expected union of 2 capabilities, got %d", granted.Len())
	}
	if !granted.Has("cap_sys_boot") || !granted.Has("cap_chown") {
		t.Errorf("Granted() missing expected entries: %s", granted)
	}
}

func TestTriple_Validate(t *testing.T) {
	good := Triple{
		Inheritable: MustSet("cap_sys_boot"),
		Ambient:     MustSet("cap_sys_boot"),
		Bounding:    MustSet("cap_sys_boot"),
	}
	if err := good.Validate(); err != nil {
		t.Errorf("Expected valid triple, got %v", err)
	}

	bad := Triple{
		Ambient:  MustSet("cap_sys_boot"),
		Bounding: MustSet("cap_sys_boot"),
	}
	if err := bad.Validate(); err == nil {
		t.Error("Ambient capability outside the inheritable set must be rejected")
	}
}
