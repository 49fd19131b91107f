package mathx

import "testing"

func TestClampAndBetween(t *testing.T) {
	if Clamp(-5, 0, 10) != 0 || Clamp(15, 0, 10) != 10 || Clamp(7, 10, 0) != 7 {
		t.Fatal("clamp")
	}
	if !Between(uint8(4), 4, 20) || Between(uint8(21), 20, 4) {
		t.Fatal("between")
	}
}

func TestRoundDiv(t *testing.T) {
	cases := []struct{ a, b, want uint64 }{
		{10, 4, 3}, {9, 4, 2}, {500_000_000_000, 1 << 32, 116}, {1, 0, 0},
	}
	for _, c := range cases {
		if got := RoundDiv(c.a, c.b); got != c.want {
			t.Fatalf("RoundDiv(%d,%d)=%d want %d", c.a, c.b, got, c.want)
		}
	}
}
