// Package ioformat loads the CSV/TXT data files the search command reads
// at startup: message lists, alphabets, and language frequency tables.
// This is commodity file I/O the coordinator treats as an external
// collaborator, but the CLI still needs a concrete loader to hand the
// core real InterleavedMessages/Alphabet values.
//
// encoding/csv is used directly: these files are small, line-oriented,
// and read once at startup, so a hand-rolled scanner would only add
// surface area without buying anything a stdlib CSV reader doesn't
// already do correctly (quoting, variable column counts, EOF handling).
package ioformat

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dzita/eye-search/internal/alphabet"
	"github.com/dzita/eye-search/internal/message"
	"github.com/dzita/eye-search/internal/searcherr"
)

// LoadMessages reads data_path: CSV rows of "name,u0,u1,..." with units
// in 0..255 decimal, or a .txt file where each line is one message split
// into grapheme clusters. A unit/cluster the alphabet does not recognize
// is dropped from the loaded data.
func LoadMessages(path string, a *alphabet.Alphabet) (*message.MessageList, error) {
	if strings.HasSuffix(strings.ToLower(path), ".txt") {
		return loadMessagesTXT(path, a)
	}
	return loadMessagesCSV(path, a)
}

func loadMessagesCSV(path string, a *alphabet.Alphabet) (*message.MessageList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, searcherr.Wrapf(searcherr.InputFormat, err, "opening message file %q", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var list message.MessageList
	row := 0
	for {
		row++
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, searcherr.Wrapf(searcherr.InputFormat, err, "message CSV %q: row %d", path, row)
		}
		if len(rec) == 0 {
			continue
		}
		name := rec[0]
		units := make([]uint8, 0, len(rec)-1)
		for col, field := range rec[1:] {
			n, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil || n < 0 || n > 255 {
				return nil, searcherr.New(searcherr.InputFormat,
					fmt.Sprintf("message CSV %q: row %d col %d: %q is not a unit in 0..255", path, row, col+2, field), nil)
			}
			code := uint8(n)
			if a.Has(code) {
				units = append(units, code)
			}
		}
		list.Messages = append(list.Messages, message.Message{Name: name, Units: units})
	}
	return &list, nil
}

func loadMessagesTXT(path string, a *alphabet.Alphabet) (*message.MessageList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, searcherr.Wrapf(searcherr.InputFormat, err, "opening message file %q", path)
	}
	defer f.Close()

	var list message.MessageList
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		units := make([]uint8, 0, len(line))
		for _, cluster := range graphemeClusters(line) {
			if code, ok := a.Code(cluster); ok {
				units = append(units, code)
			}
			// Unknown clusters are dropped from the unit data but a
			// collaborator doing display could still retain the raw line.
		}
		list.Messages = append(list.Messages, message.Message{
			Name:  fmt.Sprintf("line %d", lineNo),
			Units: units,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, searcherr.Wrapf(searcherr.InputFormat, err, "reading message TXT %q", path)
	}
	return &list, nil
}

// graphemeClusters is a pragmatic rune-by-rune approximation of grapheme
// cluster segmentation: full Unicode grapheme segmentation would need a
// dedicated normalization/segmentation library, which is more machinery
// than a handful of plain-text test fixtures need.
func graphemeClusters(s string) []string {
	runes := []rune(s)
	out := make([]string, len(runes))
	for i, r := range runes {
		out[i] = string(r)
	}
	return out
}

// LoadAlphabet reads an alphabet CSV: header row is the alphabet name,
// thereafter "code,grapheme,weight" rows.
func LoadAlphabet(path string) (*alphabet.Alphabet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, searcherr.Wrapf(searcherr.InputFormat, err, "opening alphabet file %q", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, searcherr.Wrapf(searcherr.InputFormat, err, "alphabet CSV %q: missing header row", path)
	}
	if len(header) == 0 {
		return nil, searcherr.New(searcherr.InputFormat, fmt.Sprintf("alphabet CSV %q: empty header row", path), nil)
	}
	name := header[0]

	var entries []alphabet.Entry
	row := 1
	for {
		row++
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, searcherr.Wrapf(searcherr.InputFormat, err, "alphabet CSV %q: row %d", path, row)
		}
		if len(rec) != 3 {
			return nil, searcherr.New(searcherr.InputFormat,
				fmt.Sprintf("alphabet CSV %q: row %d: expected 3 columns, got %d", path, row, len(rec)), nil)
		}
		code, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil || code < 0 || code > 255 {
			return nil, searcherr.New(searcherr.InputFormat,
				fmt.Sprintf("alphabet CSV %q: row %d: %q is not a code in 0..255", path, row, rec[0]), nil)
		}
		grapheme := rec[1]
		if clusters := graphemeClusters(grapheme); len(clusters) != 1 {
			return nil, searcherr.New(searcherr.InputFormat,
				fmt.Sprintf("alphabet CSV %q: row %d: grapheme %q is not a single cluster", path, row, grapheme), nil)
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, searcherr.New(searcherr.InputFormat,
				fmt.Sprintf("alphabet CSV %q: row %d: %q is not a weight", path, row, rec[2]), nil)
		}
		entries = append(entries, alphabet.Entry{Code: uint8(code), Grapheme: grapheme, Weight: weight})
	}

	a, err := alphabet.New(name, entries)
	if err != nil {
		return nil, searcherr.Wrapf(searcherr.InputFormat, err, "alphabet CSV %q", path)
	}
	return a, nil
}

// LoadLanguage reads a language frequency table using the same CSV shape
// as an alphabet file, and returns only its sorted, L1-normalized weight
// vector — the code/grapheme columns are ignored.
func LoadLanguage(path string) ([]float64, error) {
	a, err := LoadAlphabet(path)
	if err != nil {
		return nil, err
	}
	return a.FrequencyVector(), nil
}
