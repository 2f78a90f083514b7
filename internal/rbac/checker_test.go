package rbac_test

import (
	"testing"

	"github.com/peakprep/peakprep-lms/internal/rbac"
)

func TestDefaultPolicy(t *testing.T) {
	c := rbac.NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{"student", "attempt:create", true},
		{"student", "attempt:view-own", true},
		{"student", "attempt:view-all", false},
		{"student", "bank:edit", false},
		{"student", "users:list", false},
		{"teacher", "bank:edit", true}, // via bank:*
		{"teacher", "blueprint:create", true},
		{"teacher", "attempt:view-all", true},
		{"teacher", "attempt:create", false},
		{"admin", "anything:at_all", true},
		{"", "attempt:create", false},
		{"unknown-role", "attempt:create", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestAny(t *testing.T) {
	c := rbac.NewChecker(nil)
	if !c.Any("student", "attempt:view-own", "attempt:view-all") {
		t.Fatal("student should match view-own")
	}
	if c.Any("student", "bank:edit", "users:list") {
		t.Fatal("student matched teacher-only perms")
	}
}

func TestPrefixWildcardDoesNotCrossConcerns(t *testing.T) {
	c := rbac.NewChecker(map[string][]string{"r": {"bank:*"}})
	if !c.Has("r", "bank:edit") {
		t.Fatal("bank:* should cover bank:edit")
	}
	if c.Has("r", "blueprint:create") {
		t.Fatal("bank:* leaked into blueprint")
	}
}
