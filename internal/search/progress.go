package search

import "math/big"

// progress accumulates the arbitrary-precision counters the coordinator's
// drain loop prints from. Keyspaces can exceed 2^64, so every counter is
// a big.Int/big.Float, never a machine word.
type progress struct {
	total           *big.Int
	checked         *big.Int
	sinceLastPrint  *big.Int
	secondsTotal    float64
	secondsInterval float64
}

func newProgress(total *big.Int) *progress {
	return &progress{
		total:          new(big.Int).Set(total),
		checked:        big.NewInt(0),
		sinceLastPrint: big.NewInt(0),
	}
}

func (p *progress) addChecked(n uint64) {
	delta := new(big.Int).SetUint64(n)
	p.checked.Add(p.checked, delta)
	p.sinceLastPrint.Add(p.sinceLastPrint, delta)
}

// percent returns 100 * checked / total.
func (p *progress) percent() float64 {
	if p.total.Sign() == 0 {
		return 100
	}
	ratio := new(big.Float).Quo(new(big.Float).SetInt(p.checked), new(big.Float).SetInt(p.total))
	pct, _ := new(big.Float).Mul(ratio, big.NewFloat(100)).Float64()
	return pct
}

// keysPerSecond returns the instantaneous rate since the last print.
func (p *progress) keysPerSecond(secondsSinceLastPrint float64) float64 {
	if secondsSinceLastPrint <= 0 {
		return 0
	}
	kps, _ := new(big.Float).Quo(
		new(big.Float).SetInt(p.sinceLastPrint),
		big.NewFloat(secondsSinceLastPrint),
	).Float64()
	return kps
}

// secondsLeft estimates remaining time by extrapolating the overall rate
// since start: (keys_total - keys_checked) / keys_checked * seconds_since_start.
func (p *progress) secondsLeft(secondsSinceStart float64) float64 {
	if p.checked.Sign() == 0 {
		return 0
	}
	remaining := new(big.Int).Sub(p.total, p.checked)
	if remaining.Sign() <= 0 {
		return 0
	}
	ratio := new(big.Float).Quo(new(big.Float).SetInt(remaining), new(big.Float).SetInt(p.checked))
	secs, _ := new(big.Float).Mul(ratio, big.NewFloat(secondsSinceStart)).Float64()
	return secs
}

// resetInterval clears the since-last-print counter after a print.
func (p *progress) resetInterval() {
	p.sinceLastPrint = big.NewInt(0)
}
