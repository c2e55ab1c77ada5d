package model

// EventFunc is a scalar zero-crossing function of the evaluation context.
// A sign change of its value between two integration steps marks an event
// occurrence.
type EventFunc func(ctx *Context) float64

// UpdateFunc is the discrete state transition applied when an event
// occurs. It may overwrite any subset of state components through the
// update context.
type UpdateFunc func(u *UpdateContext)

// Event pairs a zero-crossing function with an optional state-update
// function. Events are identified by a stable index in the global event
// vector, assigned at creation time.
type Event struct {
	system *System
	path   string
	index  int
	fn     EventFunc
	update UpdateFunc
}

// NewEvent creates an event under the given owner. The update function
// may be nil, in which case an occurrence is recorded but leaves the
// state unchanged.
func NewEvent(owner Owner, name string, fn EventFunc, update UpdateFunc) *Event {
	sys := owner.System()
	e := &Event{
		system: sys,
		path:   childPath(owner, name),
		index:  len(sys.events),
		fn:     fn,
		update: update,
	}
	sys.events = append(sys.events, e)
	return e
}

// Path returns the dotted path of the event within the system.
func (e *Event) Path() string { return e.path }

// Index returns the event's position in the global event vector.
func (e *Event) Index() int { return e.index }
