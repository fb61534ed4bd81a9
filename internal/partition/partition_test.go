package partition

import "testing"

// TestShardExactDisjoint checks the union of every worker's range covers
// [0, max] exactly once, with no gaps or overlaps.
func TestShardExactDisjoint(t *testing.T) {
	cases := []struct {
		max         int64
		workerTotal int
	}{
		{255, 4},
		{255, 16},
		{255, 1},
		{7, 16}, // worker_total > max+1: excess workers get empty ranges
	}

	for _, c := range cases {
		ranges := ShardAll(c.max, c.workerTotal)
		var covered int64
		prevHi := int64(-1)
		for i, r := range ranges {
			if r.Empty() {
				continue
			}
			if r.Lo != prevHi+1 {
				t.Fatalf("max=%d W=%d: worker %d range %v is not contiguous after previous hi %d", c.max, c.workerTotal, i, r, prevHi)
			}
			prevHi = r.Hi
			covered += r.Len()
		}
		if covered != c.max+1 {
			t.Fatalf("max=%d W=%d: covered %d, want %d", c.max, c.workerTotal, covered, c.max+1)
		}
	}
}

// TestShardFourWayEvenSplit checks that a 256-value range split four
// ways lands on four even 64-wide quarters, the common case for a
// single-round ARX search with 4 workers.
func TestShardFourWayEvenSplit(t *testing.T) {
	want := []Range{{0, 63}, {64, 127}, {128, 191}, {192, 255}}
	for w, exp := range want {
		got := Shard(255, w, 4)
		if got != exp {
			t.Errorf("Shard(255, %d, 4) = %v, want %v", w, got, exp)
		}
	}
}

// TestShardEmptyBeyondMax checks that with more workers than values, a
// surplus worker gets an empty range: for max=7, W=16 the formula gives
// worker 8 lo=64/16=4 and hi=72/16-1=3.
func TestShardEmptyBeyondMax(t *testing.T) {
	r := Shard(7, 8, 16)
	if !r.Empty() {
		t.Errorf("Shard(7, 8, 16) = %v, want empty", r)
	}
}
