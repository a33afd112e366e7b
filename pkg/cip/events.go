package cip

// events.go: the event contract between the bound core and its listeners
// (LP updater, row activity tracker, ...). The queue may delay delivery but
// must preserve the per-variable order of enqueued events relative to the
// synchronous bound-change sequence that produced them.

// EventKind identifies the kind of change an Event reports.
type EventKind int

const (
	// EventObjChanged reports a change of a variable's objective coefficient.
	EventObjChanged EventKind = iota
	// EventGlbChanged reports a tightening of a global lower bound.
	EventGlbChanged
	// EventGubChanged reports a tightening of a global upper bound.
	EventGubChanged
	// EventLbChanged reports a change of a local lower bound.
	EventLbChanged
	// EventUbChanged reports a change of a local upper bound.
	EventUbChanged
	// EventImplAdded reports a newly accepted implication.
	EventImplAdded
	// EventVarUnlocked reports that a variable's rounding locks dropped to zero.
	EventVarUnlocked
	// EventVarFixed reports that a variable was fixed or aggregated away.
	EventVarFixed
)

// String returns a short name for the event kind.
func (k EventKind) String() string {
	switch k {
	case EventObjChanged:
		return "objchanged"
	case EventGlbChanged:
		return "glbchanged"
	case EventGubChanged:
		return "gubchanged"
	case EventLbChanged:
		return "lbchanged"
	case EventUbChanged:
		return "ubchanged"
	case EventImplAdded:
		return "impladded"
	case EventVarUnlocked:
		return "varunlocked"
	case EventVarFixed:
		return "varfixed"
	default:
		return "unknown"
	}
}

// Event describes one committed change. OldValue and NewValue carry the
// changed quantity for bound and objective events and are zero otherwise.
type Event struct {
	Kind     EventKind
	Var      *Variable
	OldValue float64
	NewValue float64
}

// EventSink receives events. Implementations must not mutate the variable
// from inside the callback; the change that produced the event is already
// committed when the sink runs.
type EventSink interface {
	HandleEvent(ev Event)
}

// EventQueue dispatches events to registered sinks. While delayed, events
// are buffered in arrival order and replayed by ProcessDelayed, so sinks
// observe exactly the order in which changes were committed.
type EventQueue struct {
	sinks   []EventSink
	delayed bool
	pending []Event
}

// NewEventQueue returns an empty, undelayed queue.
func NewEventQueue() *EventQueue { return &EventQueue{} }

// AddSink registers a sink. Sinks are notified in registration order.
func (q *EventQueue) AddSink(s EventSink) { q.sinks = append(q.sinks, s) }

// Delay switches the queue into buffering mode. Panics if already delayed;
// nested delays would make replay order ambiguous.
func (q *EventQueue) Delay() {
	if q.delayed {
		panic("cip: event queue is already delayed")
	}
	q.delayed = true
}

// ProcessDelayed replays all buffered events in order and switches the
// queue back to immediate dispatch.
func (q *EventQueue) ProcessDelayed() {
	if !q.delayed {
		panic("cip: event queue is not delayed")
	}
	q.delayed = false
	pending := q.pending
	q.pending = nil
	for _, ev := range pending {
		q.dispatch(ev)
	}
}

// Enqueue hands an event to the queue. Nil queues are silently permitted so
// that a Problem without listeners pays nothing.
func (q *EventQueue) Enqueue(ev Event) {
	if q == nil {
		return
	}
	if q.delayed {
		q.pending = append(q.pending, ev)
		return
	}
	q.dispatch(ev)
}

func (q *EventQueue) dispatch(ev Event) {
	for _, s := range q.sinks {
		s.HandleEvent(ev)
	}
}

// RecordingSink is an EventSink that stores every event it receives.
// Intended for tests and debugging.
type RecordingSink struct {
	Events []Event
}

// HandleEvent appends the event to the record.
func (r *RecordingSink) HandleEvent(ev Event) { r.Events = append(r.Events, ev) }

// Reset discards all recorded events.
func (r *RecordingSink) Reset() { r.Events = r.Events[:0] }
