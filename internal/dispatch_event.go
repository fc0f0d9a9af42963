package internal

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/anvil/pkg/event"
)

// setupEvents builds the bus, subscribes every catalog event's listeners in
// action order under their action names, and wires schedules. With a River
// queue, schedules become River periodic jobs; without one, an in-process
// cron scheduler fires them.
func (a *App) setupEvents() {
	a.bus = event.NewBus(event.WithLogger(a.logger))

	var schedules []event.RiverOption
	for _, e := range a.catalog.Events() {
		ctrl, ok := a.eventControllers[e.Controller]
		if !ok {
			panic(fmt.Sprintf("anvil: event %q: event controller %q is not registered", e.Name, e.Controller))
		}
		for _, name := range e.Actions {
			l, ok := ctrl.Listener(name)
			if !ok {
				panic(fmt.Sprintf("anvil: event %q: controller %q has no listener %q", e.Name, e.Controller, name))
			}
			if err := a.bus.SubscribeAs(e.Name, name, l); err != nil {
				panic(err.Error())
			}
		}

		if e.Async {
			a.bus.MarkAsync(e.Name)
		}
		if e.Schedule == "" {
			continue
		}
		if a.eventsPool != nil {
			schedules = append(schedules, event.WithSchedule(e.Name, e.Schedule))
			continue
		}
		if a.scheduler == nil {
			a.scheduler = event.NewScheduler(a.bus, event.WithSchedulerLogger(a.logger))
		}
		if err := a.scheduler.Add(e.Name, e.Schedule); err != nil {
			panic(err.Error())
		}
	}

	if a.eventsPool == nil {
		return
	}
	opts := append([]event.RiverOption{event.WithRiverLogger(a.logger)}, a.riverOpts...)
	q, err := event.NewRiverQueue(a.eventsPool, a.bus, append(opts, schedules...)...)
	if err != nil {
		panic(err.Error())
	}
	a.queue = q
	a.bus.UseQueue(q)
}

// Dispatch publishes the event name with payload encoded as JSON.
func (a *App) Dispatch(ctx context.Context, name string, payload any) error {
	e, err := event.New(name, payload)
	if err != nil {
		return err
	}
	return a.bus.Publish(ctx, e)
}
