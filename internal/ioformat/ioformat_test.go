package ioformat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dzita/eye-search/internal/alphabet"
)

func TestLoadMessagesCSVDropsUnknownUnits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messages.csv")
	// Unit 10 (line feed) is a valid byte value but outside the default
	// ASCII-printable alphabet, so it must be dropped rather than error.
	content := "hello,72,101,10,108\nworld,119,111,114,108,100\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a := alphabet.DefaultASCIIPrintable()
	list, err := LoadMessages(path, a)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(list.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(list.Messages))
	}
	if len(list.Messages[0].Units) != 3 {
		t.Fatalf("first message has %d units after dropping unit 10, want 3", len(list.Messages[0].Units))
	}
}

func TestLoadMessagesCSVRejectsOutOfRangeUnit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messages.csv")
	if err := os.WriteFile(path, []byte("bad,300\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	a := alphabet.DefaultASCIIPrintable()
	if _, err := LoadMessages(path, a); err == nil {
		t.Fatal("expected an error for a unit outside 0..255")
	}
}

func TestLoadMessagesTXTSplitsGraphemes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "messages.txt")
	if err := os.WriteFile(path, []byte("Hi!\nYo\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	a := alphabet.DefaultASCIIPrintable()
	list, err := LoadMessages(path, a)
	if err != nil {
		t.Fatalf("LoadMessages: %v", err)
	}
	if len(list.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(list.Messages))
	}
	if len(list.Messages[0].Units) != 3 {
		t.Fatalf("first message has %d units, want 3", len(list.Messages[0].Units))
	}
}

func TestLoadAlphabetRejectsDuplicateCode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alphabet.csv")
	content := "myalpha\n0,a,1.0\n0,b,1.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := LoadAlphabet(path); err == nil {
		t.Fatal("expected an error for a duplicate code")
	}
}

func TestLoadAlphabetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alphabet.csv")
	content := "myalpha\n0,a,2.0\n1,b,1.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	a, err := LoadAlphabet(path)
	if err != nil {
		t.Fatalf("LoadAlphabet: %v", err)
	}
	if a.Name != "myalpha" || a.Len() != 2 {
		t.Fatalf("got name=%q len=%d, want myalpha,2", a.Name, a.Len())
	}
}

func TestLoadLanguageReturnsNormalizedVector(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lang.csv")
	content := "english\n0,a,3.0\n1,b,1.0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dist, err := LoadLanguage(path)
	if err != nil {
		t.Fatalf("LoadLanguage: %v", err)
	}
	if len(dist) != alphabet.Size {
		t.Fatalf("len(dist) = %d, want %d", len(dist), alphabet.Size)
	}
	if dist[0] < dist[1] {
		t.Fatal("language distribution should be sorted descending")
	}
}
