package model

import "testing"

func TestRoleValid(t *testing.T) {
	for _, valid := range []Role{RoleAdmin, RoleAgent, RoleClient} {
		if !valid.Valid() {
			t.Errorf("%q should be valid", valid)
		}
	}
	for _, invalid := range []Role{"", "superuser", "Admin"} {
		if invalid.Valid() {
			t.Errorf("%q should not be valid", invalid)
		}
	}
}

func TestRoleCapabilities(t *testing.T) {
	tests := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapabilityNotifyUser, true},
		{RoleAdmin, CapabilityNotifyRole, true},
		{RoleAgent, CapabilityNotifyUser, true},
		{RoleAgent, CapabilityNotifyRole, false},
		{RoleClient, CapabilityNotifyUser, false},
		{RoleClient, CapabilityNotifyRole, false},
		{Role("unknown"), CapabilityNotifyUser, false},
	}

	for _, tt := range tests {
		if got := tt.role.HasCapability(tt.cap); got != tt.want {
			t.Errorf("%s.HasCapability(%s) = %v, want %v", tt.role, tt.cap, got, tt.want)
		}
	}
}
