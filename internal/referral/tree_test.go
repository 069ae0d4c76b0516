package referral

import (
	"strings"
	"testing"
)

func TestBuildTreePath(t *testing.T) {
	cases := []struct {
		name         string
		referrerPath string
		referrerCode string
		want         string
	}{
		{"no referrer", "", "", ""},
		{"root referrer", "", "AAAA", "AAAA"},
		{"appends nearest last", "AAAA.BBBB", "CCCC", "AAAA.BBBB.CCCC"},
		{"fills to five", "A1.A2.A3.A4", "A5", "A1.A2.A3.A4.A5"},
		{"drops oldest past five", "A1.A2.A3.A4.A5", "A6", "A2.A3.A4.A5.A6"},
		{"tolerates empty segments", ".A1..A2", "A3", "A1.A2.A3"},
	}

	for _, tc := range cases {
		if got := BuildTreePath(tc.referrerPath, tc.referrerCode); got != tc.want {
			t.Fatalf("%s: BuildTreePath(%q,%q) = %q; want %q", tc.name, tc.referrerPath, tc.referrerCode, got, tc.want)
		}
	}
}

func TestBuildTreePathNeverExceedsDepth(t *testing.T) {
	path := ""
	for i := 0; i < 20; i++ {
		code := string(rune('A'+i)) + "X"
		path = BuildTreePath(path, code)
		if n := len(Segments(path)); n > MaxDepth {
			t.Fatalf("depth %d after %d referrals", n, i+1)
		}
	}
	if !strings.HasSuffix(path, "TX") {
		t.Fatalf("expected most recent referrer last, got %q", path)
	}
}

func TestAncestorsNearestFirst(t *testing.T) {
	got := Ancestors("A1.A2.A3")
	want := []string{"A3", "A2", "A1"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Ancestors = %v; want %v", got, want)
	}

	if got := Ancestors(""); len(got) != 0 {
		t.Fatalf("expected no ancestors for empty path, got %v", got)
	}

	long := Ancestors("A1.A2.A3.A4.A5.A6.A7")
	if len(long) != MaxDepth || long[0] != "A7" || long[MaxDepth-1] != "A3" {
		t.Fatalf("unexpected capped ancestors %v", long)
	}
}

func TestRate(t *testing.T) {
	want := []string{"0.15", "0.08", "0.05", "0.02", "0.01"}
	for i, w := range want {
		if got := Rate(i + 1).String(); got != w {
			t.Fatalf("Rate(%d) = %s; want %s", i+1, got, w)
		}
	}
	if !Rate(0).IsZero() || !Rate(6).IsZero() {
		t.Fatalf("expected zero rate outside 1..5")
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := GenerateCode()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(CodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside alphabet", code, r)
			}
		}
		seen[code] = true
	}
	if len(seen) < 190 {
		t.Fatalf("too many collisions: %d unique of 200", len(seen))
	}
}
