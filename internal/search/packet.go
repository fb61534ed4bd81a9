package search

// PacketKind is the tag of a worker->coordinator packet.
type PacketKind int

const (
	// PacketProgress carries the number of keys checked since the last
	// progress packet from the same worker.
	PacketProgress PacketKind = iota
	// PacketMatch carries one matched key's self-delimited encoding.
	PacketMatch
	// PacketFinished is a worker's normal terminal packet.
	PacketFinished
	// PacketError is a worker's abnormal terminal packet (predicate
	// compile failure, or a recovered panic treated as disconnection).
	PacketError
)

// Packet is one message on the bounded worker->coordinator channel. A
// worker's Finished/Error packet is always ordered after all of its
// prior Progress/Match packets, because a single worker only ever sends
// from one goroutine.
type Packet struct {
	Kind     PacketKind
	WorkerID uint32

	// Keys is valid for PacketProgress.
	Keys uint64
	// Key is valid for PacketMatch: the matched key's self-delimited
	// encoding.
	Key []byte
	// Err is valid for PacketError.
	Err error
}
