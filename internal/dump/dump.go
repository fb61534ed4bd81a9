// Package dump implements the key dump file format: a single
// protobuf-style length-delimited KeyDumpMeta header record, followed by
// the concatenation of matched keys in the cipher's own self-delimited
// encoding (no separator, since each key already knows its own length).
//
// The header is framed with google.golang.org/protobuf's low-level
// protowire primitives directly, rather than a generated message type,
// since KeyDumpMeta is three scalar fields and does not warrant a .proto
// schema of its own.
package dump

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/dzita/eye-search/internal/cipher"
	"github.com/dzita/eye-search/internal/searcherr"
)

// Meta is the dump file header: build_hash and cipher_name are always
// present; cipher_config is optional (nil when the cipher was
// constructed with an empty config string).
type Meta struct {
	BuildHash    string
	CipherName   string
	CipherConfig *string
}

const (
	fieldBuildHash    protowire.Number = 1
	fieldCipherName   protowire.Number = 2
	fieldCipherConfig protowire.Number = 3
)

func marshalMeta(m Meta) []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldBuildHash, protowire.BytesType)
	b = protowire.AppendString(b, m.BuildHash)
	b = protowire.AppendTag(b, fieldCipherName, protowire.BytesType)
	b = protowire.AppendString(b, m.CipherName)
	if m.CipherConfig != nil {
		b = protowire.AppendTag(b, fieldCipherConfig, protowire.BytesType)
		b = protowire.AppendString(b, *m.CipherConfig)
	}
	return b
}

func unmarshalMeta(b []byte) (Meta, error) {
	var m Meta
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return m, protowire.ParseError(n)
		}
		b = b[n:]

		switch num {
		case fieldBuildHash:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.BuildHash = v
			b = b[n:]
		case fieldCipherName:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			m.CipherName = v
			b = b[n:]
		case fieldCipherConfig:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			cfg := v
			m.CipherConfig = &cfg
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return m, protowire.ParseError(n)
			}
			b = b[n:]
		}
	}
	return m, nil
}

// writeHeader frames meta as a single length-delimited record: a varint
// byte length, followed by the marshaled message.
func writeHeader(w io.Writer, meta Meta) error {
	body := marshalMeta(meta)
	framed := protowire.AppendVarint(make([]byte, 0, binary.MaxVarintLen64+len(body)), uint64(len(body)))
	framed = append(framed, body...)
	_, err := w.Write(framed)
	return err
}

func readHeader(r io.ByteReader) (Meta, error) {
	length, err := binary.ReadUvarint(r)
	if err != nil {
		return Meta{}, err
	}
	body := make([]byte, length)
	for i := range body {
		b, err := r.ReadByte()
		if err != nil {
			return Meta{}, err
		}
		body[i] = b
	}
	return unmarshalMeta(body)
}

// Writer appends matched keys to an open dump file. Only the
// coordinator's drain loop writes to it today; WriteKey is still
// mutex-guarded in case a future concurrent flush path also touches it.
type Writer struct {
	mu sync.Mutex
	f  *os.File
}

// Create opens path for writing, truncating any existing file, and
// writes the header record.
func Create(path string, meta Meta) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, searcherr.Wrapf(searcherr.IOFailure, err, "creating key dump %q", path)
	}
	if err := writeHeader(f, meta); err != nil {
		f.Close()
		return nil, searcherr.Wrapf(searcherr.IOFailure, err, "writing key dump header to %q", path)
	}
	return &Writer{f: f}, nil
}

// WriteKey appends one self-delimited encoded key, verbatim: duplicate
// matches (e.g. from a predicate multiple keys satisfy) are never
// deduplicated, so the record count always equals the match count.
func (w *Writer) WriteKey(encoded []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(encoded); err != nil {
		return searcherr.Wrapf(searcherr.IOFailure, err, "writing matched key")
	}
	return nil
}

// Close flushes and closes the dump file.
func (w *Writer) Close() error { return w.f.Close() }

// Reader reads a dump file back: the header, then every key record.
type Reader struct {
	f    *os.File
	br   *bufio.Reader
	Meta Meta
}

// Open reads path's header and returns a Reader positioned at the first
// key record.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReader(f)
	meta, err := readHeader(br)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Reader{f: f, br: br, Meta: meta}, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error { return r.f.Close() }

// ReadAllKeys decodes every remaining key record using decode, which must
// match the cipher named in r.Meta.CipherName: that's why the header
// records the cipher name, so a reader can look up the right decoder
// before it touches a single key record.
func (r *Reader) ReadAllKeys(decode cipher.KeyDecoder) ([]cipher.Key, error) {
	rest, err := io.ReadAll(r.br)
	if err != nil {
		return nil, err
	}
	var keys []cipher.Key
	for len(rest) > 0 {
		k, n, err := decode(rest)
		if err != nil {
			return keys, err
		}
		keys = append(keys, k)
		rest = rest[n:]
	}
	return keys, nil
}
