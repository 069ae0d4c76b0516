package telegram

import "testing"

func TestAccountAge(t *testing.T) {
	cases := []struct {
		id   int64
		want float64
	}{
		{1, 11},
		{35_000_000, 11},
		{35_000_001, 10},
		{500_000_000, 7},
		{2_000_000_000, 3},
		{4_000_000_000, 1.5},
		{7_000_000_000, 1},
	}
	for _, c := range cases {
		if got := DefaultAgeTable.AccountAge(c.id); got != c.want {
			t.Errorf("AccountAge(%d) = %v, want %v", c.id, got, c.want)
		}
	}
}
