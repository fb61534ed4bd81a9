package search

import (
	"context"
	"fmt"

	"github.com/dzita/eye-search/internal/cipher"
	"github.com/dzita/eye-search/internal/predicate"
)

// runWorker is one worker's full lifecycle: it compiles its own copy of
// the predicate, enumerates its keyspace partition, and reports progress
// and matches back over ch, finishing with exactly one terminal packet
// (PacketFinished on success, PacketError on a compile/setup failure or
// a recovered panic).
func runWorker(
	ctx context.Context,
	workerID, workerTotal uint32,
	c cipher.Cipher,
	dir cipher.Direction,
	input cipher.Input,
	expression string,
	languages [][]float64,
	ch chan<- Packet,
) (err error) {
	defer func() {
		if r := recover(); r != nil {
			werr := fmt.Errorf("worker %d panicked: %v", workerID, r)
			ch <- Packet{Kind: PacketError, WorkerID: workerID, Err: werr}
			err = werr
		}
	}()

	wc, err := c.CreateWorkerContext(workerID, workerTotal)
	if err != nil {
		ch <- Packet{Kind: PacketError, WorkerID: workerID, Err: err}
		return nil
	}

	pred, err := predicate.Compile(expression, &predicate.Env{Input: input, Languages: languages})
	if err != nil {
		ch <- Packet{Kind: PacketError, WorkerID: workerID, Err: err}
		return nil
	}
	slab := pred.Slab()

	onKey := func(k cipher.Key) {
		codec := wc.NewCodec(dir, k, input)
		slab.Reset(codec)

		matched, evalErr := pred.Evaluate()
		if evalErr != nil {
			// Not expected once compilation succeeded; surfaced as a
			// panic so the recover above reports it uniformly with any
			// other unexpected worker failure.
			panic(evalErr)
		}
		if matched {
			buf := k.Encode(make([]byte, 0, 32))
			ch <- Packet{Kind: PacketMatch, WorkerID: workerID, Key: buf}
		}
	}

	onChunk := func(keysInChunk uint64) (stop bool) {
		ch <- Packet{Kind: PacketProgress, WorkerID: workerID, Keys: keysInChunk}
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}

	if permErr := wc.Permute(onKey, onChunk); permErr != nil {
		ch <- Packet{Kind: PacketError, WorkerID: workerID, Err: permErr}
		return nil
	}

	ch <- Packet{Kind: PacketFinished, WorkerID: workerID}
	return nil
}
