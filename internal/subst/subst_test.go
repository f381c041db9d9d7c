// ABOUTME: Tests for placeholder substitution
// ABOUTME: Covers verbatim copying, unbound names and unterminated placeholders

package subst

import (
	"errors"
	"testing"
)

func TestSubstitute(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		template string
		bindings Bindings
		want     string
	}{
		{"value with spaces", "${test} hi there", Bindings{"test": "hi there"}, "hi there hi there"},
		{"no placeholders", "plain text", nil, "plain text"},
		{"classifier arch", "natives-windows-${arch}", Bindings{"arch": "64"}, "natives-windows-64"},
		{"adjacent", "${a}${b}", Bindings{"a": "1", "b": "2"}, "12"},
		{"lone dollar", "cost $5", nil, "cost $5"},
		{"trailing dollar", "end$", nil, "end$"},
		{"double dollar", "$${a}", Bindings{"a": "x"}, "$x"},
		{"empty value", "--x ${v}", Bindings{"v": ""}, "--x "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Substitute(tt.template, tt.bindings)
			if err != nil {
				t.Fatalf("Substitute: %v", err)
			}
			if got != tt.want {
				t.Errorf("Substitute() = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestSubstitute_Unbound(t *testing.T) {
	t.Parallel()

	_, err := Substitute("--user ${auth_player_name}", Bindings{"other": "x"})
	var ub *UnboundError
	if !errors.As(err, &ub) {
		t.Fatalf("error = %v; want *UnboundError", err)
	}
	if ub.Name != "auth_player_name" {
		t.Errorf("Name = %q; want auth_player_name", ub.Name)
	}
	if ub.Offset != 7 {
		t.Errorf("Offset = %d; want 7", ub.Offset)
	}
}

func TestSubstitute_Unterminated(t *testing.T) {
	t.Parallel()

	_, err := Substitute("${never closed", Bindings{})
	if !errors.Is(err, ErrUnterminated) {
		t.Fatalf("error = %v; want ErrUnterminated", err)
	}
}

func TestSubstituteAll(t *testing.T) {
	t.Parallel()

	got, err := SubstituteAll([]string{"--username", "${name}", "--dir", "${dir}"}, Bindings{"name": "Steve", "dir": "/g"})
	if err != nil {
		t.Fatalf("SubstituteAll: %v", err)
	}
	want := []string{"--username", "Steve", "--dir", "/g"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q; want %q", i, got[i], want[i])
		}
	}

	if _, err := SubstituteAll([]string{"${missing}"}, nil); err == nil {
		t.Error("expected error for unbound token")
	}
}
