// Package cipher defines the abstract cipher family: a cipher enumerates
// its keyspace and, for each key, produces decrypted or encrypted output
// without reallocating per key.
package cipher

import "math/big"

// Direction selects encrypt or decrypt for a CodecContext. It is fixed
// when the codec is constructed and does not change for that codec's
// lifetime; the ARX codec is a single type that stores the direction and
// checks it on every Output call.
type Direction int

const (
	Decrypt Direction = iota
	Encrypt
)

// Key is a cipher-specific key: encodable to a self-delimited byte
// sequence, decodable back, and renderable as a human string.
type Key interface {
	// Encode appends this key's self-delimited encoding to dst and
	// returns the result.
	Encode(dst []byte) []byte
	// String renders the key for logs; equal keys render identically.
	String() string
}

// KeyDecoder decodes a self-delimited key encoding, returning the decoded
// key and the number of bytes consumed.
type KeyDecoder func(data []byte) (Key, int, error)

// CodecContext is a transient view pairing a key borrow with an
// input-message borrow, producing per-cell output for one direction. It is
// created fresh for each key and performs no heap allocation beyond its
// own construction.
type CodecContext interface {
	// Output returns the output byte for message m, unit index u, after
	// bounds-checking m and u against the input.
	Output(m, u int) uint8

	// OutputUnchecked is Output without the bounds check, for call sites
	// that already proved m and u are in range (the predicate compiler's
	// constant-argument specialization path). Passing an out-of-range
	// m or u is undefined behavior, not a recoverable error.
	OutputUnchecked(m, u int) uint8
}

// WorkerContext is an immutable, per-worker partition descriptor. It owns
// nothing shared with other workers.
type WorkerContext interface {
	// TotalKeys is the exact count of keys in this worker's partition.
	TotalKeys() *big.Int

	// Permute enumerates every key in the partition exactly once,
	// invoking onKey(key) per key and onChunk(keysInChunk) at least every
	// 2^32 keys. onChunk returning true aborts enumeration early; Permute
	// still returns nil in that case.
	Permute(onKey func(Key), onChunk func(keysInChunk uint64) (stop bool)) error

	// NewCodec constructs a CodecContext for the given key and direction,
	// borrowing the key and the input buffer for the duration of one key
	// evaluation.
	NewCodec(dir Direction, key Key, input Input) CodecContext
}

// Input is the minimal view a CodecContext needs of the message buffer;
// satisfied by *message.InterleavedMessages (kept as an interface here so
// this package does not import message, avoiding a dependency cycle with
// cipher implementations that need both).
type Input interface {
	M() int
	UnitCount(m int) int
	At(m, u int) uint8
	// AtUnchecked is At without the bounds check; see CodecContext.OutputUnchecked.
	AtUnchecked(m, u int) uint8
}

// Cipher is the top-level capability set a registered cipher exposes.
type Cipher interface {
	Name() string

	// MaxParallelism is an upper bound on useful worker count (e.g. 256
	// for ARX, because the first round's add range has 256 slots).
	MaxParallelism() uint32

	// CreateWorkerContext returns workerID's disjoint partition out of
	// workerTotal workers.
	CreateWorkerContext(workerID, workerTotal uint32) (WorkerContext, error)

	// TotalKeys is the exact keyspace size for workerTotal=1, i.e. the
	// full keyspace.
	TotalKeys() *big.Int

	// NetKeyToString decodes a self-delimited key encoding and renders it,
	// for logs.
	NetKeyToString(encoded []byte) (string, error)

	// DecodeKey decodes a self-delimited key encoding, returning the
	// number of bytes consumed (used by the dump reader).
	DecodeKey(encoded []byte) (Key, int, error)
}

// Constructor builds a Cipher from a config string.
type Constructor func(config string) (Cipher, error)
