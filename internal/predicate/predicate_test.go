package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzita/eye-search/internal/cipher"
)

type fakeInput struct {
	units []uint8
}

func (f *fakeInput) M() int                  { return 1 }
func (f *fakeInput) UnitCount(m int) int     { return len(f.units) }
func (f *fakeInput) At(m, u int) uint8       { return f.units[u] }
func (f *fakeInput) AtUnchecked(m, u int) uint8 { return f.units[u] }

type fakeCodec struct {
	out []uint8
}

func (c *fakeCodec) Output(m, u int) uint8          { return c.out[u] }
func (c *fakeCodec) OutputUnchecked(m, u int) uint8 { return c.out[u] }

// TestSpecializationConstantFold exercises constant-argument folding:
// with in(0,0)==42, "in(0,0) - 42" must be a compile-time-folded
// constant, false for every key, with zero dynamic out()/
// in_freq_dist_error calls.
func TestSpecializationConstantFold(t *testing.T) {
	in := &fakeInput{units: []uint8{42, 1, 2}}
	env := &Env{Input: in, Languages: nil}

	pred, err := Compile("in(0,0) - 42", env)
	require.NoError(t, err)

	pred.Slab().Reset(&fakeCodec{out: []uint8{0, 0, 0}})
	matched, err := pred.Evaluate()
	require.NoError(t, err)
	assert.False(t, matched, "in(0,0)-42 should never exceed zero when in(0,0)==42")
}

func TestConstantOutOfRangeRejected(t *testing.T) {
	in := &fakeInput{units: []uint8{1, 2, 3}}
	env := &Env{Input: in, Languages: nil}

	_, err := Compile("in(0, 99)", env)
	assert.Error(t, err, "constant index beyond message length must be a compile error")
}

func TestUnknownLanguageIndexRejected(t *testing.T) {
	in := &fakeInput{units: []uint8{1, 2, 3}}
	env := &Env{Input: in, Languages: nil}

	_, err := Compile("in_freq_dist_error(0) > 0", env)
	assert.Error(t, err)
}

// TestAlwaysTrueMatchesEveryKey checks a constant-true predicate matches
// regardless of the codec's output.
func TestAlwaysTrueMatchesEveryKey(t *testing.T) {
	in := &fakeInput{units: []uint8{5}}
	env := &Env{Input: in, Languages: nil}

	pred, err := Compile("1", env)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		pred.Slab().Reset(&fakeCodec{out: []uint8{uint8(i)}})
		matched, err := pred.Evaluate()
		require.NoError(t, err)
		assert.True(t, matched)
	}
}

// TestOutFreqCacheLazyAndReused exercises the per-key output-frequency
// cache: out_freq_dist_error must scan the codec at most once per key,
// even when referenced twice in one expression.
func TestOutFreqCacheLazyAndReused(t *testing.T) {
	in := &fakeInput{units: []uint8{1, 2, 3}}
	lang := make([]float64, 256)
	lang[0] = 1
	env := &Env{Input: in, Languages: [][]float64{lang}}

	pred, err := Compile("out_freq_dist_error(0) + out_freq_dist_error(0) - 0", env)
	require.NoError(t, err)

	counting := &countingCodec{fakeCodec: fakeCodec{out: []uint8{9, 9, 9}}}
	pred.Slab().Reset(counting)
	_, err = pred.Evaluate()
	require.NoError(t, err)

	assert.Equal(t, 3, counting.calls, "Output should be invoked once per unit regardless of how many times out_freq_dist_error appears in the expression")
}

type countingCodec struct {
	fakeCodec
	calls int
}

func (c *countingCodec) Output(m, u int) uint8 {
	c.calls++
	return c.fakeCodec.Output(m, u)
}

func (c *countingCodec) OutputUnchecked(m, u int) uint8 {
	c.calls++
	return c.fakeCodec.OutputUnchecked(m, u)
}

var _ cipher.CodecContext = (*fakeCodec)(nil)
