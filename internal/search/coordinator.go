// Package search implements the coordinator: it spawns a scoped worker
// pool, drains a bounded packet channel, prints progress/ETA to stdout,
// and writes matches to a dump file (or stdout).
//
// The shape is a worker pool that generates, a dedicated drain loop that
// consumes, and a ticker that prints periodic stats — a pipeline that
// keeps the hot key-generation loop free of any I/O or locking. Pool
// supervision (start every worker, wait for all of them before closing
// the packet channel) is delegated to golang.org/x/sync/errgroup; the
// error errgroup returns is not used, since worker failures reach the
// coordinator as Error packets.
package search

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/dzita/eye-search/internal/cipher"
	"github.com/dzita/eye-search/internal/dump"
	"github.com/dzita/eye-search/internal/searcherr"
	"github.com/dzita/eye-search/internal/searchmetrics"
)

// channelCapacity is the worker->coordinator packet channel's buffer
// size: large enough to absorb a burst of matches without a worker
// blocking on a full channel, small enough that a stalled drain loop
// backpressures the workers quickly rather than after gigabytes of
// buffered packets.
const channelCapacity = 64

// printInterval is the minimum gap between progress prints.
const printInterval = 5 * time.Second

// Coordinator owns one search run.
type Coordinator struct {
	Cipher     cipher.Cipher
	Direction  cipher.Direction
	Input      cipher.Input
	Expression string
	Languages  [][]float64

	// Sequential forces worker_total = 1 (--sequential/-s).
	Sequential bool
	// MaxWorkers caps worker_total (--max-parallelism/-m); 0 means unset.
	MaxWorkers uint32
	// DryRun parses and plans the search without spawning workers.
	DryRun bool

	// DumpPath, when non-empty, writes matches to this file instead of
	// stdout (--key-dump-path/-k).
	DumpPath     string
	BuildHash    string
	CipherName   string
	CipherConfig string

	Logger  *logrus.Logger
	Metrics *searchmetrics.Metrics
	Out     io.Writer
}

// Result summarizes one completed search.
type Result struct {
	KeysChecked     *big.Int
	Matches         int
	DurationSeconds float64
}

func (c *Coordinator) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Coordinator) logger() *logrus.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.StandardLogger()
}

// effectiveWorkerTotal computes
// worker_total = min(get_parallelism(), user_cap, cipher.max_parallelism())
// or 1 when --sequential is set.
func (c *Coordinator) effectiveWorkerTotal() uint32 {
	if c.Sequential {
		return 1
	}
	n := uint32(runtime.NumCPU())
	if c.MaxWorkers > 0 && c.MaxWorkers < n {
		n = c.MaxWorkers
	}
	if max := c.Cipher.MaxParallelism(); max < n {
		n = max
	}
	if n == 0 {
		n = 1
	}
	return n
}

// logStartupSummary echoes the loaded messages and keyspace size before
// spawning workers, so an operator can sanity-check the run (right
// cipher, right message count, a keyspace size that won't run forever)
// before it's underway.
func (c *Coordinator) logStartupSummary(workerTotal uint32, totalKeys *big.Int) {
	fmt.Fprintf(c.out(), "cipher=%s messages=%d workers=%d keyspace=%s\n",
		c.Cipher.Name(), c.Input.M(), workerTotal, totalKeys.String())
}

// printProgress renders one progress line and, if metrics are enabled,
// publishes the same rate to the keys/sec gauge.
func (c *Coordinator) printProgress(p *progress, secondsSinceStart, secondsSinceLastPrint float64) {
	rate := p.keysPerSecond(secondsSinceLastPrint)
	if c.Metrics != nil {
		c.Metrics.KeysPerSec.Set(rate)
	}
	fmt.Fprintf(c.out(), "%.2f%% (%s/%s keys) %.0f keys/sec, ETA %.0fs\n",
		p.percent(), p.checked.String(), p.total.String(),
		rate, p.secondsLeft(secondsSinceStart))
}

// Run executes the search to completion: init, spawn workers, drain
// until every worker reports finished, then exit — or an early error
// exit on a setup, dump-file, or channel failure.
func (c *Coordinator) Run(ctx context.Context) (*Result, error) {
	workerTotal := c.effectiveWorkerTotal()
	totalKeys := c.Cipher.TotalKeys()
	c.logStartupSummary(workerTotal, totalKeys)

	if c.DryRun {
		return &Result{KeysChecked: big.NewInt(0)}, nil
	}

	var dumpWriter *dump.Writer
	if c.DumpPath != "" {
		var cfgPtr *string
		if c.CipherConfig != "" {
			cfgPtr = &c.CipherConfig
		}
		w, err := dump.Create(c.DumpPath, dump.Meta{
			BuildHash:    c.BuildHash,
			CipherName:   c.CipherName,
			CipherConfig: cfgPtr,
		})
		if err != nil {
			return nil, err
		}
		dumpWriter = w
		defer dumpWriter.Close()
	}

	if totalKeys.Sign() == 0 {
		// Empty keyspace: print 100% and exit cleanly without spawning
		// any workers, rather than dividing by zero computing a percent.
		fmt.Fprintln(c.out(), "100.00% (0/0 keys) - empty keyspace, nothing to search")
		return &Result{KeysChecked: big.NewInt(0)}, nil
	}

	ch := make(chan Packet, channelCapacity)
	g, _ := errgroup.WithContext(ctx)
	for w := uint32(0); w < workerTotal; w++ {
		id := w
		g.Go(func() error {
			return runWorker(ctx, id, workerTotal, c.Cipher, c.Direction, c.Input, c.Expression, c.Languages, ch)
		})
	}
	go func() {
		_ = g.Wait() // first unexpected worker error, if any, only logged below via per-packet Error reporting
		close(ch)
	}()

	return c.drain(ch, workerTotal, totalKeys, dumpWriter)
}

func (c *Coordinator) drain(ch <-chan Packet, workerTotal uint32, totalKeys *big.Int, dumpWriter *dump.Writer) (*Result, error) {
	prog := newProgress(totalKeys)
	start := time.Now()
	lastPrint := start
	workersWaiting := int(workerTotal)
	matches := 0

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for open := true; open; {
		select {
		case pkt, ok := <-ch:
			if !ok {
				open = false
				continue
			}
			switch pkt.Kind {
			case PacketProgress:
				prog.addChecked(pkt.Keys)
				if c.Metrics != nil {
					c.Metrics.KeysChecked.Add(float64(pkt.Keys))
				}

			case PacketMatch:
				matches++
				if c.Metrics != nil {
					c.Metrics.MatchesFound.Inc()
				}
				if dumpWriter != nil {
					if err := dumpWriter.WriteKey(pkt.Key); err != nil {
						c.logger().WithError(err).Error("writing match to key dump failed")
						return nil, err
					}
				} else {
					s, err := c.Cipher.NetKeyToString(pkt.Key)
					if err != nil {
						s = fmt.Sprintf("%x", pkt.Key)
					}
					fmt.Fprintf(c.out(), "MATCH: %s\n", s)
				}

			case PacketFinished:
				workersWaiting--
				fmt.Fprintf(c.out(), "Worker %d finished task\n", pkt.WorkerID)

			case PacketError:
				workersWaiting--
				c.logger().WithFields(logrus.Fields{"worker": pkt.WorkerID}).WithError(pkt.Err).
					Error("worker reported an error; other workers continue")
			}

		case now := <-ticker.C:
			if now.Sub(lastPrint) >= printInterval {
				c.printProgress(prog, now.Sub(start).Seconds(), now.Sub(lastPrint).Seconds())
				prog.resetInterval()
				lastPrint = now
			}
		}
	}

	if workersWaiting != 0 {
		err := searcherr.New(searcherr.ChannelDisconnect,
			fmt.Sprintf("%d worker(s) vanished without a terminal packet", workersWaiting), nil)
		c.logger().WithError(err).Error("search terminated abnormally")
		return nil, err
	}

	c.printProgress(prog, time.Since(start).Seconds(), time.Since(lastPrint).Seconds())
	fmt.Fprintln(c.out(), "search complete")

	return &Result{KeysChecked: prog.checked, Matches: matches, DurationSeconds: time.Since(start).Seconds()}, nil
}
