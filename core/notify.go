package core

// noteSweepDone marks a sweep completion in the notification queue
const noteSweepDone int8 = -1

const noteQueueSize = 8

// notifier carries completion events from the tick handlers to the main loop.
// Handlers only post; the main loop drains and does the I/O.
type notifier struct {
	queue   [noteQueueSize]int8
	head    uint8
	count   uint8
	dropped uint32
}

// post is called from interrupt context
func (n *notifier) post(ch int8) {
	if n.count == noteQueueSize {
		n.dropped++
		return
	}
	n.queue[(n.head+n.count)%noteQueueSize] = ch
	n.count++
}

// take removes the oldest event. Called from the main loop.
func (n *notifier) take() (int8, bool) {
	state := disableInterrupts()
	defer restoreInterrupts(state)
	if n.count == 0 {
		return 0, false
	}
	ch := n.queue[n.head]
	n.head = (n.head + 1) % noteQueueSize
	n.count--
	return ch, true
}

// appendNote formats an event as the host expects it: "Done" or "Done<ch>"
func appendNote(dst []byte, ch int8) []byte {
	dst = append(dst, "Done"...)
	if ch != noteSweepDone {
		dst = append(dst, itoa(int(ch))...)
	}
	return append(dst, '\r', '\n')
}
