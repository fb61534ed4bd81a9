// Package message implements the message buffer: a named unit sequence,
// a list of such messages, and the cache-friendly interleaved layout the
// hot per-unit scan path reads from.
package message

import "fmt"

// Message is one named sequence of alphabet unit codes.
type Message struct {
	Name  string
	Units []uint8
}

// MessageList groups named messages loaded from one data file.
type MessageList struct {
	Messages []Message
}

// MaxLen returns the longest message's unit count.
func (l *MessageList) MaxLen() int {
	max := 0
	for _, m := range l.Messages {
		if len(m.Units) > max {
			max = len(m.Units)
		}
	}
	return max
}

// InterleavedMessages is the hot-path layout: a single contiguous array
// of length M * LMax, indexed buf[u*M + m] for unit index u and message
// index m. Interleaving this way means a scan over all M messages at a
// fixed unit index u touches one contiguous cache line instead of M
// scattered ones. unitCount[m] records message m's actual length; cells
// beyond it are zero padding.
type InterleavedMessages struct {
	buf       []uint8
	unitCount []int
	m         int
	lMax      int
}

// NewInterleaved builds the interleaved layout from a MessageList.
func NewInterleaved(l *MessageList) *InterleavedMessages {
	m := len(l.Messages)
	lMax := l.MaxLen()
	buf := make([]uint8, m*lMax)
	unitCount := make([]int, m)

	for mi, msg := range l.Messages {
		unitCount[mi] = len(msg.Units)
		for u, unit := range msg.Units {
			buf[u*m+mi] = unit
		}
	}

	return &InterleavedMessages{buf: buf, unitCount: unitCount, m: m, lMax: lMax}
}

// M returns the number of messages.
func (im *InterleavedMessages) M() int { return im.m }

// LMax returns the padded length every message is stored at.
func (im *InterleavedMessages) LMax() int { return im.lMax }

// UnitCount returns message m's actual unit count.
func (im *InterleavedMessages) UnitCount(m int) int { return im.unitCount[m] }

// At returns the unit at message m, index u, panicking if m or u is out
// of range.
func (im *InterleavedMessages) At(m, u int) uint8 {
	if m < 0 || m >= im.m || u < 0 || u >= im.lMax {
		panic(fmt.Sprintf("message: index (m=%d,u=%d) out of range (M=%d,LMax=%d)", m, u, im.m, im.lMax))
	}
	return im.buf[u*im.m+m]
}

// AtUnchecked is At without the bounds check, for call sites that have
// already proven m and u are in range. The predicate compiler uses this
// when a predicate indexes a message at a constant position it validated
// once, at compile time, rather than on every key tried.
func (im *InterleavedMessages) AtUnchecked(m, u int) uint8 {
	return im.buf[u*im.m+m]
}

// InBounds reports whether (m, u) addresses a real (non-padding) cell.
func (im *InterleavedMessages) InBounds(m, u int) bool {
	return m >= 0 && m < im.m && u >= 0 && u < im.unitCount[m]
}
