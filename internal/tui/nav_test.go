package tui

import "testing"

func TestStep(t *testing.T) {
	items := []string{"b2", "c1", "c3"}
	cases := []struct {
		current string
		forward bool
		want    string
	}{
		{"b2", true, "c1"},
		{"c1", true, "c3"},
		{"c3", true, "c3"},
		{"c3", false, "c1"},
		{"b2", false, "b2"},
		{"zz", true, "zz"},
		{"", true, ""},
	}
	for _, tc := range cases {
		if got := step(items, tc.current, tc.forward); got != tc.want {
			t.Fatalf("step(%q, forward=%v) = %q, want %q", tc.current, tc.forward, got, tc.want)
		}
	}
	if items[0] != "b2" {
		t.Fatalf("step must not reorder its input")
	}
}

func TestStepRoundTrip(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	for n := 0; n < len(items); n++ {
		cur := "a"
		for i := 0; i < n; i++ {
			cur = step(items, cur, true)
		}
		for i := 0; i < n; i++ {
			cur = step(items, cur, false)
		}
		if cur != "a" {
			t.Fatalf("%d steps forward and back ended on %q", n, cur)
		}
	}
}
