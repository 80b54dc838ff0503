package condition_test

import (
	"errors"
	"testing"

	"github.com/firehall/cost-engine/condition"
)

// =============================================================================
// EVALUATION TESTS
// =============================================================================

func TestEval_Operators(t *testing.T) {
	vars := map[string]bool{"a": true, "b": false, "c": true}

	cases := []struct {
		input string
		want  bool
	}{
		{"a", true},
		{"b", false},
		{"NON a", false},
		{"NON b", true},
		{"a ET c", true},
		{"a ET b", false},
		{"a OU b", true},
		{"b OU b", false},
		{"a ET (b OU c)", true},
		{"NON (a ET b)", true},
		{"a ET NON b ET c", true},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expr := condition.MustParse(tc.input)
			if got := expr.Eval(vars); got != tc.want {
				t.Errorf("Eval(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestEval_Precedence(t *testing.T) {
	// NON binds tightest, ET before OU: "a OU b ET c" is "a OU (b ET c)".
	vars := map[string]bool{"a": true, "b": true, "c": false}
	if condition.MustParse("a OU b ET c").Eval(vars) != true {
		t.Error("OU must bind looser than ET")
	}
	if condition.MustParse("(a OU b) ET c").Eval(vars) != false {
		t.Error("parentheses must override precedence")
	}
}

func TestEval_AbsentVariablesAreFalse(t *testing.T) {
	// A missing answer can only hide, never crash.
	expr := condition.MustParse("inconnu OU NON inconnu")
	if !expr.Eval(nil) {
		t.Error("NON inconnu should be true against an empty context")
	}
	if condition.MustParse("inconnu").Eval(map[string]bool{}) {
		t.Error("absent variable must evaluate to false")
	}
}

func TestParse_SynonymsAndCase(t *testing.T) {
	vars := map[string]bool{"alarme": true, "exempte": false}

	for _, input := range []string{
		"alarme ET NON exempte",
		"alarme AND NOT exempte",
		"alarme && !exempte",
		"alarme et non exempte",
	} {
		expr, err := condition.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if !expr.Eval(vars) {
			t.Errorf("Eval(%q) = false, want true", input)
		}
	}
}

// =============================================================================
// PARSE ERRORS
// =============================================================================

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"dangling operator", "a ET"},
		{"unclosed paren", "(a OU b"},
		{"leading operator", "ET a"},
		{"trailing garbage", "a b"},
		{"bad character", "a @ b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := condition.Parse(tc.input)
			if !errors.Is(err, condition.ErrParse) {
				t.Errorf("Parse(%q) err = %v, want ErrParse", tc.input, err)
			}
			var pe *condition.ParseError
			if !errors.As(err, &pe) {
				t.Errorf("Parse(%q) should return a positioned ParseError", tc.input)
			}
		})
	}
}

func TestString_RoundTrips(t *testing.T) {
	// String output re-parses to an equivalent expression.
	input := "a ET NON (b OU c)"
	expr := condition.MustParse(input)

	again, err := condition.Parse(expr.String())
	if err != nil {
		t.Fatalf("re-parsing %q: %v", expr.String(), err)
	}
	for _, vars := range []map[string]bool{
		{"a": true, "b": false, "c": false},
		{"a": true, "b": true, "c": false},
		{"a": false},
	} {
		if expr.Eval(vars) != again.Eval(vars) {
			t.Errorf("round-trip changed semantics for %v", vars)
		}
	}
}
