// Package events defines the framework event ids and their payloads.
//
// Event ids form one process-wide enumeration. Framework ids live in the
// 1001-1100 block; application ids start at UserIDBase. Every id is a
// compile-time constant, so two packages can never claim the same id by
// accident the way hashed ids could.
//
// Payload-carrying events declare a Kind and a struct. The struct's Payload
// method tags it for the bus, and typed handlers bind to the kind:
//
//	progress := events.DownloadProgress{TotalDownloadCount: 10, CurrentDownloadCount: 3}
//	_ = bus.FirePayload(updater, events.DownloadProgressUpdate, progress.Payload())
//
//	h := event.On(events.KindDownloadProgress,
//	    func(sender any, env *event.Envelope, p events.DownloadProgress) error {
//	        return nil
//	    })
//	_ = bus.Subscribe(events.DownloadProgressUpdate, h)
//
// Events without data (InitializeFailed, UpdaterDone, ...) are fired with
// event.NoPayload().
package events
