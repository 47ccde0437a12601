// hal/hal_test.go

package hal

import "testing"

func TestValidPin(t *testing.T) {
	cases := []struct {
		pin  uint32
		want bool
	}{
		{0, true},
		{17, true},
		{MaxUserPin, true},
		{MaxUserPin + 1, false},
		{NC, false},
	}
	for _, c := range cases {
		if got := ValidPin(c.pin); got != c.want {
			t.Errorf("ValidPin(%d) = %v, want %v", c.pin, got, c.want)
		}
	}
}

func TestParseEdgeRoundTrip(t *testing.T) {
	for _, e := range []Edge{NoEdge, Rising, Falling, Both} {
		got, ok := ParseEdge(e.String())
		if !ok || got != e {
			t.Errorf("ParseEdge(%q) = %v, %v", e.String(), got, ok)
		}
	}
	if _, ok := ParseEdge("sideways"); ok {
		t.Error("ParseEdge accepted garbage")
	}
}

func TestLevelOf(t *testing.T) {
	if LevelOf(true) != High || LevelOf(false) != Low {
		t.Error("LevelOf mapping wrong")
	}
}
