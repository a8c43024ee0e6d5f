// Package dispatch runs handler calls so that failures stay contained.
//
// A handler that returns an error or panics must not break the dispatch
// loop, the other handlers of the same envelope, or the producer that fired
// it. Executor runs one Call with that guarantee and reports its Outcome;
// SyncDispatcher adds outcome counters on top. The event bus dispatches every
// handler through a SyncDispatcher, and the tick loop uses a bare Executor for
// its tasks and hooks.
//
//	d := dispatch.NewSyncDispatcher(
//	    dispatch.WithPanicHandler(func(t dispatch.Target, p *dispatch.Panic) {
//	        logger.Error("panic", zap.Stringer("target", t), zap.Any("value", p.Value))
//	    }),
//	)
//	res := d.Dispatch(dispatch.Target{Event: 42, Role: "handler"}, func() error {
//	    return h.Handle(sender, env)
//	})
//	if !res.OK() {
//	    // report and continue with the next handler
//	}
package dispatch
