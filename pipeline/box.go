package pipeline

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Box is a component that can be connected in a [Pipeline].
// Every Box must embed [Base], which provides no-op lifecycle hooks and tracks association, and should own at least one [Producer] or [Consumer].
//
// Lifecycle hooks are only ever called by the goroutine running [Pipeline.Run], in the order boxes were first connected.
// Once Stop returns, the Box must not call [Producer.Produce] again.
type Box interface {
	PreStart()
	Start()
	Stop()
	base() *Base
}

// Base is embedded in every [Box].
// The zero value is ready to use.
type Base struct {
	assoc atomic.Pointer[association]
}

type association struct {
	pipeline *Pipeline
	id       uuid.UUID
}

func (b *Base) PreStart() {}
func (b *Base) Start()    {}
func (b *Base) Stop()     {}

func (b *Base) base() *Base {
	return b
}

// ID returns the identity assigned when the Box was first connected, or [uuid.Nil] before that.
func (b *Base) ID() uuid.UUID {
	if assoc := b.assoc.Load(); assoc != nil {
		return assoc.id
	}
	return uuid.Nil
}

// Pipeline returns the [Pipeline] the Box is bound to, or nil if it was never connected.
func (b *Base) Pipeline() *Pipeline {
	if assoc := b.assoc.Load(); assoc != nil {
		return assoc.pipeline
	}
	return nil
}

// associatedElsewhere reports whether the Box is bound to a pipeline other than p.
func (b *Base) associatedElsewhere(p *Pipeline) bool {
	assoc := b.assoc.Load()
	return assoc != nil && assoc.pipeline != p
}

// associate binds the Box to p.
// Binding to the same pipeline again succeeds without change, and newly reports whether this call made the binding.
func (b *Base) associate(p *Pipeline) (newly bool, err error) {
	if current := b.assoc.Load(); current != nil {
		return false, checkAssociation(current, p)
	}
	if b.assoc.CompareAndSwap(nil, &association{pipeline: p, id: uuid.New()}) {
		return true, nil
	}
	// Lost a race with another associate call.
	return false, checkAssociation(b.assoc.Load(), p)
}

func checkAssociation(current *association, p *Pipeline) error {
	if current != nil && current.pipeline != p {
		return ErrAlreadyAssociated
	}
	return nil
}

// dissociate undoes a binding made by associate, as long as it's still bound to p.
func (b *Base) dissociate(p *Pipeline) {
	if assoc := b.assoc.Load(); assoc != nil && assoc.pipeline == p {
		b.assoc.CompareAndSwap(assoc, nil)
	}
}

func boxName(box Box) string {
	return fmt.Sprintf("%T", box)
}
