// Package control implements ControlChannels: the two channels binding the
// core enumeration pipeline to its consumer, grounded on the "item channel
// + hangup beacon" design in original_source/src/exec/recursive.rs
// (try_send/is_channel_closed).
package control

import "github.com/ubuntu/snapview/internal/record"

// FileTypeHint is a best-effort classification of a SelectionCandidate's
// underlying entry, forwarded for presentation only; the engine never
// relies on it.
type FileTypeHint int

// Recognized file type hints.
const (
	FileTypeUnknown FileTypeHint = iota
	FileTypeRegular
	FileTypeDirectory
	FileTypeSymlink
)

// SelectionCandidate is the transient streaming item produced by
// RecursiveEnumerator and DeletedScanner: a path plus a phantom flag.
type SelectionCandidate struct {
	Path         record.PathRecord
	FileTypeHint FileTypeHint
	IsPhantom    bool
}

// Hangup is the zero-capacity, uninhabited-payload beacon: the consumer
// holds the send side and closes it on exit. Producers select on it
// between units of work; its closure is the cancellation signal, not an
// error.
type Hangup = chan struct{}

// NewHangup returns a hangup beacon ready for the consumer to close on
// exit.
func NewHangup() Hangup {
	return make(chan struct{})
}

// Closed reports whether the hangup beacon has been closed, without
// blocking.
func Closed(hangup Hangup) bool {
	select {
	case <-hangup:
		return true
	default:
		return false
	}
}

// Channels bundles the item sender and the hangup receiver handed to
// producers. The item channel is a buffered Go channel of the size given to
// New, so it is not unbounded: once the buffer is full, Send blocks until
// the consumer receives or the hangup beacon closes. After the beacon
// closes, Send degrades to a no-op (a closed consumer is a graceful stop,
// never an error).
type Channels struct {
	items  chan SelectionCandidate
	hangup Hangup
}

// New returns a Channels with an item channel of the given buffer size
// (0 is legal: sends will simply synchronize with a receive) and the given
// hangup beacon.
func New(bufSize int, hangup Hangup) Channels {
	return Channels{items: make(chan SelectionCandidate, bufSize), hangup: hangup}
}

// Items returns the receive side of the item channel, for the consumer.
func (c Channels) Items() <-chan SelectionCandidate {
	return c.items
}

// Send attempts to forward item to the consumer. It returns false if the
// hangup beacon is closed, meaning the producer should stop promptly; it
// never blocks indefinitely once the beacon closes because it races the
// send against the beacon in a select.
func (c Channels) Send(item SelectionCandidate) (sent bool) {
	select {
	case <-c.hangup:
		return false
	default:
	}
	select {
	case c.items <- item:
		return true
	case <-c.hangup:
		return false
	}
}

// Close closes the item channel, the graceful "no more work" signal to the
// consumer. Only the single producer goroutine driving a given Channels
// should call this, after every worker it fanned out to has finished.
func (c Channels) Close() {
	close(c.items)
}

// HungUp reports whether the hangup beacon is closed.
func (c Channels) HungUp() bool {
	return Closed(c.hangup)
}
