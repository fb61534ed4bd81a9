/*
eye-search - Parallel Keyspace-Enumeration Cryptanalysis Engine

Description:

	Exhaustively searches a cipher's keyspace under a user-supplied
	scoring predicate, evaluated against one or more ciphertext messages.
	Matches are streamed from a fixed worker pool to a coordinator that
	prints progress/ETA and persists matches to a dump file or stdout.

Algorithm:

	1. Load messages, alphabet, and language frequency tables from disk.
	2. Construct the named cipher from its config string via the registry.
	3. Derive worker_total = min(NumCPU, user cap, cipher.MaxParallelism()).
	4. Spawn worker_total workers, each owning a disjoint keyspace
	   partition and its own compiled predicate.
	5. Drain the worker->coordinator packet channel, printing progress and
	   writing matches to the dump file (or stdout) as they arrive.

Usage:

	eye-search <data_path> <condition> <cipher> [config] [flags]

Author: David Zita
License: MIT
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"github.com/dzita/eye-search/internal/alphabet"
	"github.com/dzita/eye-search/internal/cipher"
	"github.com/dzita/eye-search/internal/cipher/registry"
	"github.com/dzita/eye-search/internal/ioformat"
	"github.com/dzita/eye-search/internal/message"
	"github.com/dzita/eye-search/internal/search"
	"github.com/dzita/eye-search/internal/searchmetrics"
)

// gitHash is baked at build time via
//
//	go build -ldflags "-X main.gitHash=$(git rev-parse HEAD)"
//
// and embedded in the key dump header so a dump file can be traced back
// to the exact build that produced it.
var gitHash = "unknown"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	encrypt := flags.BoolP("encrypt", "e", false, "run in encrypt mode rather than decrypt")
	sequential := flags.BoolP("sequential", "s", false, "force worker_total = 1")
	maxParallelism := flags.Uint32P("max-parallelism", "m", 0, "upper cap on worker count")
	languagePaths := flags.StringArrayP("language", "l", nil, "frequency CSV for *_freq_dist_error bindings (repeatable)")
	dumpPath := flags.StringP("key-dump-path", "k", "", "write matches here instead of stdout")
	alphabetPath := flags.StringP("alphabet", "a", "", "alphabet CSV (default: ASCII printable)")
	dryRun := flags.Bool("dry-run", false, "parse and plan the search without spawning workers")
	metricsAddr := flags.String("metrics-addr", "", "if set, serve Prometheus /metrics on this address")

	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: search <data_path> <condition> <cipher> [config] [flags]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return 1
	}

	positional := flags.Args()
	if len(positional) < 3 {
		flags.Usage()
		return 1
	}
	dataPath, condition, cipherName := positional[0], positional[1], positional[2]
	cipherConfig := ""
	if len(positional) >= 4 {
		cipherConfig = positional[3]
	}

	// --- Load alphabet ---------------------------------------------------
	var ab *alphabet.Alphabet
	if *alphabetPath != "" {
		loaded, err := ioformat.LoadAlphabet(*alphabetPath)
		if err != nil {
			log.WithError(err).Error("loading alphabet")
			return 1
		}
		ab = loaded
	} else {
		ab = alphabet.DefaultASCIIPrintable()
	}

	// --- Load messages -----------------------------------------------------
	msgList, err := ioformat.LoadMessages(dataPath, ab)
	if err != nil {
		log.WithError(err).Error("loading messages")
		return 1
	}
	input := message.NewInterleaved(msgList)

	// --- Load language frequency tables, in CLI order -----------------
	languages := make([][]float64, 0, len(*languagePaths))
	for _, p := range *languagePaths {
		dist, err := ioformat.LoadLanguage(p)
		if err != nil {
			log.WithError(err).WithField("path", p).Error("loading language")
			return 1
		}
		languages = append(languages, dist)
	}

	// --- Construct the cipher ------------------------------------------
	c, err := registry.Create(cipherName, cipherConfig)
	if err != nil {
		log.WithError(err).Error("constructing cipher")
		return 1
	}

	dir := cipher.Decrypt
	if *encrypt {
		dir = cipher.Encrypt
	}

	var metrics *searchmetrics.Metrics
	if *metricsAddr != "" {
		metrics = searchmetrics.New(prometheusDefaultRegisterer())
		go serveMetrics(*metricsAddr, log)
	}

	coord := &search.Coordinator{
		Cipher:       c,
		Direction:    dir,
		Input:        input,
		Expression:   condition,
		Languages:    languages,
		Sequential:   *sequential,
		MaxWorkers:   *maxParallelism,
		DryRun:       *dryRun,
		DumpPath:     *dumpPath,
		BuildHash:    gitHash,
		CipherName:   cipherName,
		CipherConfig: cipherConfig,
		Logger:       log,
		Metrics:      metrics,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := coord.Run(ctx); err != nil {
		log.WithError(err).Error("search terminated with an error")
		return 1
	}
	return 0
}
