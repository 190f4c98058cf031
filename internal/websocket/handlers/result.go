package handlers

// EventResult is the output of a handler invocation: at most one reply event
// for the caller, and whether the transport should then drop the connection.
type EventResult struct {
	event      string
	reply      any
	disconnect bool
}

// NewEventResult constructs a handler result that replies with event.
func NewEventResult(event string, reply any) EventResult {
	return EventResult{event: event, reply: reply}
}

// NewEventResultAndClose replies with event and then closes the connection.
func NewEventResultAndClose(event string, reply any) EventResult {
	return EventResult{event: event, reply: reply, disconnect: true}
}

// NoReply is a result that emits nothing.
func NoReply() EventResult {
	return EventResult{}
}

// HasReply reports whether the transport should emit a reply event.
func (r EventResult) HasReply() bool { return r.event != "" }

// Event returns the reply event name.
func (r EventResult) Event() string { return r.event }

// Reply returns the reply payload.
func (r EventResult) Reply() any { return r.reply }

// Disconnect reports whether the connection must be closed after replying.
func (r EventResult) Disconnect() bool { return r.disconnect }
