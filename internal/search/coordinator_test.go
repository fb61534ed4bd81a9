package search

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dzita/eye-search/internal/cipher/arx"
	"github.com/dzita/eye-search/internal/message"
)

func smallInput(t *testing.T) *message.InterleavedMessages {
	t.Helper()
	return message.NewInterleaved(&message.MessageList{Messages: []message.Message{
		{Name: "m", Units: []uint8{1, 2, 3}},
	}})
}

// TestDrainAllMatches checks that with an always-true predicate and
// single-round ARX split across 2 workers, every key is a match and the
// coordinator consumes all 524288 without loss, reaching 100%.
func TestDrainAllMatches(t *testing.T) {
	c, err := arx.ParseConfig("1")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}

	var out bytes.Buffer
	coord := &Coordinator{
		Cipher:     c,
		Input:      smallInput(t),
		Expression: "1",
		MaxWorkers: 2,
		Out:        &out,
	}

	res, err := coord.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Matches != 524288 {
		t.Fatalf("Matches = %d, want 524288", res.Matches)
	}
	if res.KeysChecked.Int64() != 524288 {
		t.Fatalf("KeysChecked = %s, want 524288", res.KeysChecked)
	}
	if !strings.Contains(out.String(), "search complete") {
		t.Fatal("expected a final \"search complete\" line")
	}
}

// TestEmptyKeyspacePrints100Percent checks the coordinator's own
// zero-keyspace short-circuit. ARX rejects round_count=0 at config-parse
// time, so an empty keyspace is only reachable via a stub cipher here.
func TestEmptyKeyspacePrints100Percent(t *testing.T) {
	var out bytes.Buffer
	coord := &Coordinator{
		Cipher:     &zeroKeyspaceCipher{},
		Input:      smallInput(t),
		Expression: "1",
		Out:        &out,
	}

	res, err := coord.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Matches != 0 {
		t.Fatalf("Matches = %d, want 0", res.Matches)
	}
	if !strings.Contains(out.String(), "100.00%") {
		t.Fatalf("expected a 100%% line, got: %s", out.String())
	}
}

func TestDryRunDoesNotSpawnWorkers(t *testing.T) {
	c, err := arx.ParseConfig("1")
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	var out bytes.Buffer
	coord := &Coordinator{
		Cipher:     c,
		Input:      smallInput(t),
		Expression: "1",
		DryRun:     true,
		Out:        &out,
	}
	res, err := coord.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Matches != 0 || res.KeysChecked.Sign() != 0 {
		t.Fatalf("dry run should do no work, got %+v", res)
	}
}
