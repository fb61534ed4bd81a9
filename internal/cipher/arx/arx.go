// Package arx implements the reference ARX cipher: 1 to 8 rounds of
// (add, rotate, xor) applied byte-by-byte. It exists as a cryptanalysis
// test bench with a fast, exactly-invertible round function and a
// parallelism-friendly keyspace, not as a cipher anyone should rely on
// for secrecy.
package arx

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/dzita/eye-search/internal/cipher"
	"github.com/dzita/eye-search/internal/partition"
)

// MinRounds and MaxRounds bound the configurable round count.
const (
	MinRounds = 1
	MaxRounds = 8

	// keysPerRound is the per-round keyspace: 256 add values * 8 rotate
	// amounts * 256 xor values.
	keysPerRound = 256 * 8 * 256

	// addRange is the number of values the first round's add byte takes.
	// Sharding workers by that byte gives up to 256-way parallelism with
	// no coordination between workers.
	addRange = 256
)

// Round is one ARX round's parameters.
type Round struct {
	Add uint8
	Rot uint8 // 0..=7
	Xor uint8
}

// Key is an ordered list of ARX rounds.
type Key struct {
	Rounds []Round
}

// Encode appends this key's self-delimited encoding: one length byte
// (round count) followed by 3 bytes per round (add, rot, xor).
func (k *Key) Encode(dst []byte) []byte {
	dst = append(dst, uint8(len(k.Rounds)))
	for _, r := range k.Rounds {
		dst = append(dst, r.Add, r.Rot, r.Xor)
	}
	return dst
}

// DecodeKey decodes a self-delimited ARX key, returning bytes consumed.
func DecodeKey(data []byte) (cipher.Key, int, error) {
	if len(data) < 1 {
		return nil, 0, fmt.Errorf("arx: short key encoding")
	}
	n := int(data[0])
	need := 1 + n*3
	if len(data) < need {
		return nil, 0, fmt.Errorf("arx: key encoding truncated: need %d bytes, have %d", need, len(data))
	}
	rounds := make([]Round, n)
	for i := 0; i < n; i++ {
		off := 1 + i*3
		rounds[i] = Round{Add: data[off], Rot: data[off+1], Xor: data[off+2]}
	}
	return &Key{Rounds: rounds}, need, nil
}

// String renders the key deterministically: equal keys always produce
// equal strings, so logs and dumps can be diffed textually.
func (k *Key) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range k.Rounds {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "(a=%d,r=%d,x=%d)", r.Add, r.Rot, r.Xor)
	}
	b.WriteByte(']')
	return b.String()
}

// ARX is the registered Cipher implementation.
type ARX struct {
	roundCount int
}

// ParseConfig parses the ARX config string: the decimal round count.
// An empty config defaults to 2 rounds. Round counts outside
// MinRounds..MaxRounds, including 0, are rejected as a setup error rather
// than silently clamped.
func ParseConfig(config string) (*ARX, error) {
	config = strings.TrimSpace(config)
	roundCount := 2
	if config != "" {
		n, err := strconv.Atoi(config)
		if err != nil {
			return nil, fmt.Errorf("arx: invalid config %q: %w", config, err)
		}
		roundCount = n
	}
	if roundCount < MinRounds || roundCount > MaxRounds {
		return nil, fmt.Errorf("arx: round count %d out of range [%d,%d]", roundCount, MinRounds, MaxRounds)
	}
	return &ARX{roundCount: roundCount}, nil
}

// New is the registry.Constructor for "arx".
func New(config string) (cipher.Cipher, error) { return ParseConfig(config) }

func (a *ARX) Name() string { return "arx" }

// MaxParallelism is the first round's add range: 256.
func (a *ARX) MaxParallelism() uint32 { return addRange }

// TotalKeys is keysPerRound^roundCount.
func (a *ARX) TotalKeys() *big.Int {
	total := big.NewInt(1)
	perRound := big.NewInt(keysPerRound)
	for i := 0; i < a.roundCount; i++ {
		total.Mul(total, perRound)
	}
	return total
}

func (a *ARX) NetKeyToString(encoded []byte) (string, error) {
	k, _, err := DecodeKey(encoded)
	if err != nil {
		return "", err
	}
	return k.String(), nil
}

func (a *ARX) DecodeKey(encoded []byte) (cipher.Key, int, error) { return DecodeKey(encoded) }

// CreateWorkerContext returns workerID's disjoint shard of the first
// round's add range.
func (a *ARX) CreateWorkerContext(workerID, workerTotal uint32) (cipher.WorkerContext, error) {
	if workerTotal == 0 {
		return nil, fmt.Errorf("arx: workerTotal must be positive")
	}
	r := partition.Shard(addRange-1, int(workerID), int(workerTotal))
	return &workerContext{arx: a, addRange: r}, nil
}

type workerContext struct {
	arx      *ARX
	addRange partition.Range
}

// TotalKeys is this worker's exact partition size.
func (w *workerContext) TotalKeys() *big.Int {
	total := big.NewInt(w.addRange.Len())
	total.Mul(total, big.NewInt(8*256)) // round 0's rot * xor, fully enumerated
	if w.arx.roundCount > 1 {
		perRound := big.NewInt(keysPerRound)
		rest := big.NewInt(1)
		for i := 1; i < w.arx.roundCount; i++ {
			rest.Mul(rest, perRound)
		}
		total.Mul(total, rest)
	}
	return total
}

// Permute enumerates every key in this worker's partition exactly once.
// Round 0 is recursed over this worker's add shard; every later round is
// enumerated in full by every worker. The Key passed to onKey is reused
// across calls and must not be retained past the callback — onKey should
// copy out whatever it needs before returning.
func (w *workerContext) Permute(onKey func(cipher.Key), onChunk func(keysInChunk uint64) (stop bool)) error {
	n := w.arx.roundCount
	rounds := make([]Round, n)
	key := &Key{Rounds: rounds}

	if n == 1 {
		// Single-round case skips the recursion entirely: add is this
		// worker's shard, rot/xor are fully enumerated, one chunk report
		// at the end.
		var count uint64
		for add := w.addRange.Lo; add <= w.addRange.Hi; add++ {
			for rot := 0; rot < 8; rot++ {
				for xor := 0; xor < 256; xor++ {
					rounds[0] = Round{Add: uint8(add), Rot: uint8(rot), Xor: uint8(xor)}
					onKey(key)
					count++
				}
			}
		}
		if onChunk != nil {
			onChunk(count)
		}
		return nil
	}

	stopped := false
	var recurse func(idx int) bool // returns true if caller should stop
	recurse = func(idx int) bool {
		if idx == n-1 {
			// Innermost round: full enumeration, chunk boundary after
			// every 524288-key slab.
			var count uint64
			for add := 0; add < 256 && !stopped; add++ {
				for rot := 0; rot < 8 && !stopped; rot++ {
					for xor := 0; xor < 256 && !stopped; xor++ {
						rounds[idx] = Round{Add: uint8(add), Rot: uint8(rot), Xor: uint8(xor)}
						onKey(key)
						count++
					}
				}
			}
			if onChunk != nil && onChunk(count) {
				stopped = true
			}
			return stopped
		}

		loAdd, hiAdd := 0, 255
		if idx == 0 {
			loAdd, hiAdd = int(w.addRange.Lo), int(w.addRange.Hi)
		}
		for add := loAdd; add <= hiAdd && !stopped; add++ {
			for rot := 0; rot < 8 && !stopped; rot++ {
				for xor := 0; xor < 256 && !stopped; xor++ {
					rounds[idx] = Round{Add: uint8(add), Rot: uint8(rot), Xor: uint8(xor)}
					if recurse(idx + 1) {
						return true
					}
				}
			}
		}
		return stopped
	}
	recurse(0)
	return nil
}

// NewCodec constructs a stateless per-unit codec context. ARX has no
// chained state between units (unlike a chained cipher such as
// autokey), so no interior-mutable cache is needed here.
func (w *workerContext) NewCodec(dir cipher.Direction, key cipher.Key, input cipher.Input) cipher.CodecContext {
	return &codec{dir: dir, key: key.(*Key), input: input}
}

type codec struct {
	dir   cipher.Direction
	key   *Key
	input cipher.Input
}

func rotateRight8(b uint8, rot uint8) uint8 {
	rot &= 7
	return (b >> rot) | (b << (8 - rot))
}

func rotateLeft8(b uint8, rot uint8) uint8 {
	rot &= 7
	return (b << rot) | (b >> (8 - rot))
}

// Output returns the decrypted (or encrypted) byte at message m, unit u:
//
//	decrypt: b <- ((b + add) ror rot) ^ xor, rounds forward
//	encrypt: b <- ((b ^ xor) rol rot) - add, rounds reverse
//
// m and u are bounds-checked through the input's At.
func (c *codec) Output(m, u int) uint8 {
	return c.apply(c.input.At(m, u))
}

// OutputUnchecked is Output with the bounds check on m, u skipped: the
// caller has already proven the indices are valid, typically because the
// predicate compiler baked them in as constants at compile time.
func (c *codec) OutputUnchecked(m, u int) uint8 {
	return c.apply(c.input.AtUnchecked(m, u))
}

func (c *codec) apply(b uint8) uint8 {
	rounds := c.key.Rounds
	if c.dir == cipher.Decrypt {
		for i := 0; i < len(rounds); i++ {
			r := rounds[i]
			b = rotateRight8(b+r.Add, r.Rot) ^ r.Xor
		}
		return b
	}
	for i := len(rounds) - 1; i >= 0; i-- {
		r := rounds[i]
		b = rotateLeft8(b^r.Xor, r.Rot) - r.Add
	}
	return b
}
