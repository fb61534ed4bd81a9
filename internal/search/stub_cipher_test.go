package search

import (
	"math/big"

	"github.com/dzita/eye-search/internal/cipher"
)

// zeroKeyspaceCipher is a minimal stub cipher with an empty keyspace, used
// to exercise the coordinator's total_keys==0 boundary without needing a
// real cipher that rejects the configuration that would produce it (ARX
// itself rejects round_count=0 at parse time, so it can never reach the
// coordinator with an empty keyspace).
type zeroKeyspaceCipher struct{}

func (zeroKeyspaceCipher) Name() string             { return "zero" }
func (zeroKeyspaceCipher) MaxParallelism() uint32    { return 1 }
func (zeroKeyspaceCipher) TotalKeys() *big.Int       { return big.NewInt(0) }
func (zeroKeyspaceCipher) NetKeyToString(b []byte) (string, error) { return "", nil }
func (zeroKeyspaceCipher) DecodeKey(b []byte) (cipher.Key, int, error) { return nil, 0, nil }

func (zeroKeyspaceCipher) CreateWorkerContext(workerID, workerTotal uint32) (cipher.WorkerContext, error) {
	return nil, nil
}
