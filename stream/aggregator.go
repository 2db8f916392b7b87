package stream

// Sink receives the decoded turn data. The conversation store implements it;
// tests can substitute a plain buffer.
type Sink interface {
	AppendReasoning(chunk string)
	AppendContent(chunk string)
	UpsertToolCall(name, status, result string)
}

// Aggregator folds events into a Sink in strict arrival order. Once a
// terminal event (done or error) has been seen, later events are ignored:
// a server that keeps writing after reporting failure does not corrupt the
// turn.
type Aggregator struct {
	sink    Sink
	done    bool
	failed  bool
	errText string
}

func NewAggregator(sink Sink) *Aggregator {
	return &Aggregator{sink: sink}
}

// Apply processes one event.
func (a *Aggregator) Apply(ev Event) {
	if a.done || a.failed {
		return
	}

	switch ev.Type {
	case EventReasoning:
		a.sink.AppendReasoning(ev.Text)
	case EventContent:
		a.sink.AppendContent(ev.Text)
	case EventToolCall:
		a.sink.UpsertToolCall(ev.Name, ev.Status, ev.Result)
	case EventDone:
		a.done = true
	case EventError:
		a.failed = true
		a.errText = ev.Text
	}
}

// Done reports whether an explicit done frame was seen.
func (a *Aggregator) Done() bool {
	return a.done
}

// Failed returns the server-reported error text, if any.
func (a *Aggregator) Failed() (string, bool) {
	return a.errText, a.failed
}
