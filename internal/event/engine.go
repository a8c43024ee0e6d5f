package event

import (
	"go.uber.org/zap"

	"github.com/dshills/tickbus/internal/event/dispatch"
)

// dispatch runs one envelope through its subscribers: resolve, snapshot,
// invoke, clean up.
func (b *Bus) dispatch(env *Envelope) {
	b.eventsDispatched.Add(1)
	b.config.observer.EventDispatched(env.id)

	subs := b.registry.Snapshot(env.id)
	if len(subs) == 0 {
		b.dispatchDefault(env)
		return
	}

	var spent []*subscription
	for _, sub := range subs {
		// A once handler that already fired in an outer dispatch of this id
		// is still in the registry until that dispatch cleans up.
		if sub.spent {
			continue
		}

		if !b.invoke(env, sub.handler, "handler") {
			continue
		}

		if sub.once {
			sub.spent = true
			spent = append(spent, sub)
		}
		if env.handled {
			break
		}
	}

	if len(spent) == 0 {
		return
	}

	removed := false
	for _, sub := range spent {
		// The handler may have unsubscribed itself already.
		if b.registry.removeSubscription(sub) {
			removed = true
		}
	}
	if removed {
		b.subscriptionsChanged()
	}
}

// dispatchDefault handles an envelope whose id has no subscribers.
func (b *Bus) dispatchDefault(env *Envelope) {
	if b.defaultHandler != nil {
		b.invoke(env, b.defaultHandler, "default")
		return
	}

	b.eventsUnhandled.Add(1)
	b.config.observer.EventUnhandled(env.id)
	b.logger.Warn("no subscriber for event",
		zap.Int("event_id", int(env.id)),
		zap.String("sender_type", typeName(env.sender)),
	)
}

// invoke calls one handler with failure containment. Returns true if the
// handler returned without error or panic.
func (b *Bus) invoke(env *Envelope, h Handler, role string) bool {
	target := dispatch.Target{Event: int(env.id), Role: role}
	result := b.dispatcher.Dispatch(target, func() error {
		return h.Handle(env.sender, env)
	})
	b.config.observer.HandlerExecuted(env.id, result.Duration, result.Outcome)

	switch result.Outcome {
	case dispatch.Panicked:
		b.reportFailure(&PanicError{
			ID:         env.id,
			SenderType: typeName(env.sender),
			Value:      result.Panic.Value,
			Stack:      string(result.Panic.Stack),
		}, h)
		return false
	case dispatch.Failed:
		b.reportFailure(&HandlerError{
			ID:         env.id,
			SenderType: typeName(env.sender),
			Err:        result.Err,
		}, h)
		return false
	}
	return true
}

// reportFailure logs a contained handler failure and forwards it to the
// configured ErrorHandler.
func (b *Bus) reportFailure(err error, h Handler) {
	fields := []zap.Field{
		zap.String("handler_type", typeName(h)),
		zap.Error(err),
	}
	switch e := err.(type) {
	case *PanicError:
		fields = append(fields,
			zap.Int("event_id", int(e.ID)),
			zap.String("sender_type", e.SenderType),
			zap.String("stack", e.Stack),
		)
		b.logger.Error("event handler panicked", fields...)
	case *HandlerError:
		fields = append(fields,
			zap.Int("event_id", int(e.ID)),
			zap.String("sender_type", e.SenderType),
		)
		b.logger.Error("event handler failed", fields...)
	}

	if b.config.errorHandler != nil {
		b.config.errorHandler(err)
	}
}

var _ dispatch.Dispatcher = (*dispatch.SyncDispatcher)(nil)
