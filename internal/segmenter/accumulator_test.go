package segmenter

import "testing"

func TestAccumulatorSeedReplacesContents(t *testing.T) {
	t.Parallel()

	acc := newAccumulator(1000, 1)
	acc.Append([]float32{1, 2, 3})
	acc.Seed([]float32{9, 8})

	got := acc.Take()
	if len(got) != 2 || got[0] != 9 || got[1] != 8 {
		t.Fatalf("want [9 8] after seed, got %v", got)
	}
}

func TestAccumulatorAppendGrows(t *testing.T) {
	t.Parallel()

	acc := newAccumulator(1000, 1)
	acc.Seed([]float32{1})
	acc.Append([]float32{2, 3})
	acc.Append([]float32{4})

	if acc.Len() != 4 {
		t.Fatalf("want len 4, got %d", acc.Len())
	}
	got := acc.Take()
	for i, want := range []float32{1, 2, 3, 4} {
		if got[i] != want {
			t.Fatalf("sample %d: want %g, got %g", i, want, got[i])
		}
	}
}

func TestAccumulatorTakeResets(t *testing.T) {
	t.Parallel()

	acc := newAccumulator(1000, 1)
	acc.Seed([]float32{1, 2})

	first := acc.Take()
	if len(first) != 2 {
		t.Fatalf("want 2 samples, got %d", len(first))
	}
	if acc.Len() != 0 {
		t.Fatalf("accumulator must be empty after Take, has %d", acc.Len())
	}
	if second := acc.Take(); len(second) != 0 {
		t.Fatalf("second Take must be empty, got %d samples", len(second))
	}
}

func TestAccumulatorTakeReturnsOwnedCopy(t *testing.T) {
	t.Parallel()

	acc := newAccumulator(1000, 1)
	acc.Seed([]float32{1, 2, 3})
	got := acc.Take()

	acc.Seed([]float32{7, 7, 7})
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("taken slice was mutated by later use: %v", got)
	}
}

func TestAccumulatorReset(t *testing.T) {
	t.Parallel()

	acc := newAccumulator(1000, 1)
	acc.Seed([]float32{1, 2, 3})
	acc.Reset()
	if acc.Len() != 0 {
		t.Fatalf("want empty after Reset, got %d", acc.Len())
	}
}
