package scenario

import (
	"github.com/ByteArena/dyn2d"
)

// ContactCounter counts the contact events of the last step. Register it as
// the contact listener and its StepListener as the step listener.
type ContactCounter struct {
	Begun     int
	Persisted int
	Ended     int

	// OnBegin is called for every begin event when set.
	OnBegin func(e dyn2d.ContactEvent)
}

func (c *ContactCounter) Begin(e dyn2d.ContactEvent) {
	c.Begun++
	if c.OnBegin != nil {
		c.OnBegin(e)
	}
}

func (c *ContactCounter) Persist(e dyn2d.ContactEvent) {
	c.Persisted++
}

func (c *ContactCounter) End(e dyn2d.ContactEvent) {
	c.Ended++
}

// StepListener returns a step listener that resets the counts before every
// step.
func (c *ContactCounter) StepListener() dyn2d.StepListener {
	return counterReset{c}
}

type counterReset struct {
	counter *ContactCounter
}

func (r counterReset) Begin(step dyn2d.Step, world *dyn2d.World) {
	r.counter.Begun = 0
	r.counter.Persisted = 0
	r.counter.Ended = 0
}

func (r counterReset) End(step dyn2d.Step, world *dyn2d.World) {}
