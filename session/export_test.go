package session

// Deliver hands a fragment to c as if it came from the session with id.
func Deliver(c *Controller, id, text string) { c.fragment(id, text) }

// Finish reports a terminal transition to c as if it came from the session
// with id.
func Finish(c *Controller, id string, state State, err error) { c.done(id, state, err) }
