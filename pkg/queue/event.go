package queue

// Event tracks the completion of one submission.
type Event struct {
	done chan struct{}
	err  error
}

func newEvent() *Event {
	return &Event{done: make(chan struct{})}
}

func (e *Event) complete(err error) {
	e.err = err
	close(e.done)
}

// Wait blocks until the submission completes and returns the first kernel
// error, if any.
func (e *Event) Wait() error {
	<-e.done
	return e.err
}

// Done is closed when the submission completes.
func (e *Event) Done() <-chan struct{} {
	return e.done
}
