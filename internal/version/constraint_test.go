package version

import "testing"

func TestParseConstraintAny(t *testing.T) {
	for _, s := range []string{"", "*", "latest"} {
		c, err := ParseConstraint(s)
		if err != nil {
			t.Fatalf("ParseConstraint(%q): %v", s, err)
		}
		if c.Kind != KindAny {
			t.Errorf("expected Any for %q, got %v", s, c.Kind)
		}
		if !c.Matches(MustParse("999.999.999")) {
			t.Errorf("Any must match anything")
		}
	}
}

func TestCaretInvariant(t *testing.T) {
	cases := []struct {
		constraint string
		matches    []string
		rejects    []string
	}{
		{"^1.2.3", []string{"1.2.3", "1.2.4", "1.9.0"}, []string{"1.2.2", "2.0.0"}},
		{"^0.2.3", []string{"0.2.3", "0.2.9"}, []string{"0.2.2", "0.3.0"}},
		{"^0.0.3", []string{"0.0.3"}, []string{"0.0.2", "0.0.4", "0.1.0"}},
	}
	for _, tc := range cases {
		c, err := ParseConstraint(tc.constraint)
		if err != nil {
			t.Fatalf("ParseConstraint(%q): %v", tc.constraint, err)
		}
		for _, m := range tc.matches {
			if !c.Matches(MustParse(m)) {
				t.Errorf("%s should match %s", tc.constraint, m)
			}
		}
		for _, r := range tc.rejects {
			if c.Matches(MustParse(r)) {
				t.Errorf("%s should not match %s", tc.constraint, r)
			}
		}
	}
}

func TestTilde(t *testing.T) {
	c, _ := ParseConstraint("~1.2.3")
	if !c.Matches(MustParse("1.2.9")) {
		t.Error("~1.2.3 should match 1.2.9")
	}
	if c.Matches(MustParse("1.3.0")) {
		t.Error("~1.2.3 should not match 1.3.0")
	}
	if c.Matches(MustParse("1.2.2")) {
		t.Error("~1.2.3 should not match 1.2.2")
	}
}

func TestWildcard(t *testing.T) {
	c, err := ParseConstraint("1.x")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Matches(MustParse("1.9.9")) || c.Matches(MustParse("2.0.0")) {
		t.Error("1.x should match 1.*.* only")
	}

	c, err = ParseConstraint("1.2.*")
	if err != nil {
		t.Fatal(err)
	}
	if !c.Matches(MustParse("1.2.5")) || c.Matches(MustParse("1.3.0")) {
		t.Error("1.2.* should match 1.2.* only")
	}
}

func TestAndOr(t *testing.T) {
	c, err := ParseConstraint(">=1.0.0 <2.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind != KindAnd {
		t.Fatalf("expected And, got %v", c.Kind)
	}
	if !c.Matches(MustParse("1.5.0")) || c.Matches(MustParse("2.0.0")) {
		t.Error("And constraint failed")
	}

	c, err = ParseConstraint("1.0.0 || 2.0.0")
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind != KindOr {
		t.Fatalf("expected Or, got %v", c.Kind)
	}
	if !c.Matches(MustParse("1.0.0")) || !c.Matches(MustParse("2.0.0")) || c.Matches(MustParse("1.5.0")) {
		t.Error("Or constraint failed")
	}
}

func TestParseFormatMatchesRoundTrip(t *testing.T) {
	exprs := []string{"^1.2.3", "~2.0.0", ">=1.0.0", "<=3.0.0", ">1.0.0", "<3.0.0", "1.2.3"}
	probes := []Version{MustParse("1.2.3"), MustParse("2.0.0"), MustParse("0.9.0"), MustParse("3.0.0")}

	for _, expr := range exprs {
		c, err := ParseConstraint(expr)
		if err != nil {
			t.Fatalf("ParseConstraint(%q): %v", expr, err)
		}
		c2, err := ParseConstraint(c.String())
		if err != nil {
			t.Fatalf("ParseConstraint(String()) for %q: %v", expr, err)
		}
		for _, v := range probes {
			if c.Matches(v) != c2.Matches(v) {
				t.Errorf("round-trip constraint mismatch for %q at %v", expr, v)
			}
		}
	}
}

func TestExactConstraint(t *testing.T) {
	c, err := ParseConstraint("1.2.3")
	if err != nil {
		t.Fatal(err)
	}
	if c.Kind != KindExact {
		t.Fatalf("expected Exact, got %v", c.Kind)
	}
	if !c.Matches(MustParse("1.2.3")) || c.Matches(MustParse("1.2.4")) {
		t.Error("exact constraint should only match the exact version")
	}
}
