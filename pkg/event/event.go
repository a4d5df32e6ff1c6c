package event

// Event is anything that can be published on a Bus.
type Event interface {
	EventName() string
}

// Handler consumes published events.
type Handler interface {
	Handle(event Event)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(event Event)

func (f HandlerFunc) Handle(event Event) { f(event) }
