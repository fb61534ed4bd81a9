package message

import "testing"

func TestInterleavedLayout(t *testing.T) {
	list := &MessageList{Messages: []Message{
		{Name: "a", Units: []uint8{1, 2, 3}},
		{Name: "b", Units: []uint8{9, 8}},
	}}
	im := NewInterleaved(list)

	if im.M() != 2 {
		t.Fatalf("M() = %d, want 2", im.M())
	}
	if im.LMax() != 3 {
		t.Fatalf("LMax() = %d, want 3", im.LMax())
	}
	if im.UnitCount(0) != 3 || im.UnitCount(1) != 2 {
		t.Fatalf("unit counts = %d,%d, want 3,2", im.UnitCount(0), im.UnitCount(1))
	}

	want := [][]uint8{{1, 2, 3}, {9, 8}}
	for m, units := range want {
		for u, v := range units {
			if got := im.At(m, u); got != v {
				t.Errorf("At(%d,%d) = %d, want %d", m, u, got, v)
			}
		}
	}
}

// TestPaddingIsZero checks message 1's cell beyond its own length (but
// within LMax) is zero padding, not garbage.
func TestPaddingIsZero(t *testing.T) {
	list := &MessageList{Messages: []Message{
		{Name: "a", Units: []uint8{1, 2, 3}},
		{Name: "b", Units: []uint8{9, 8}},
	}}
	im := NewInterleaved(list)
	if !im.InBounds(0, 2) {
		t.Error("message 0, unit 2 should be in bounds")
	}
	if im.InBounds(1, 2) {
		t.Error("message 1, unit 2 should be padding, not in bounds")
	}
	if got := im.AtUnchecked(1, 2); got != 0 {
		t.Errorf("padding cell = %d, want 0", got)
	}
}

func TestAtPanicsOutOfRange(t *testing.T) {
	list := &MessageList{Messages: []Message{{Name: "a", Units: []uint8{1}}}}
	im := NewInterleaved(list)
	defer func() {
		if recover() == nil {
			t.Fatal("At should panic on out-of-range access")
		}
	}()
	im.At(5, 0)
}
