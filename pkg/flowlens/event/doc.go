// Package event provides the in-process pub/sub bus that connects flow
// sources, the scheduler and the workspace analyzer.
//
// # Events
//
// Every event carries a uuid identifier, a type, the component that
// emitted it and a timestamp. BaseEvent[T] gives type-safe access to the
// payload:
//
//	evt := event.New(event.TypeFlowsChanged, "watcher", event.FlowsChanged{Path: path})
//	bus.Publish(ctx, evt)
//
// The types used by flowlens are:
//
//   - flows.changed: the flows file was written on disk
//   - flows.deployed: the editor reported a deploy
//   - analysis.completed: a workspace pass finished
//
// # Bus
//
// LocalBus fans each published event out to the matching subscriptions.
// Every subscription owns a buffered channel drained by its own goroutine,
// so a slow handler never delays other subscribers:
//
//	sub := bus.Subscribe([]string{event.TypeFlowsChanged}, event.HandlerFunc(
//	    func(ctx context.Context, evt event.Event) error {
//	        return scheduler.Trigger(ctx)
//	    }))
//	defer sub.Unsubscribe()
//
// Publish blocks while a subscriber's buffer is full unless the bus is
// configured with NonBlocking, in which case the event is dropped for that
// subscriber and OnDrop is called.
package event
