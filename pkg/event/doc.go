// Package event provides named events with JSON payloads, a synchronous bus,
// a River-backed queue for asynchronous delivery and a cron scheduler.
//
// Listeners subscribe by event name. Dispatch runs every listener in
// subscription order and joins their errors:
//
//	bus := event.NewBus()
//	bus.Subscribe("user.created", func(ctx context.Context, e event.Event) error {
//	    u, err := event.Decode[UserCreated](e)
//	    if err != nil {
//	        return err
//	    }
//	    return mailer.Welcome(ctx, u.Email)
//	})
//
//	e, _ := event.New("user.created", UserCreated{Email: "a@b.c"})
//	err := bus.Dispatch(ctx, e)
//
// Names marked async are handed to the bus queue by Publish and dispatched
// later by a worker:
//
//	q, err := event.NewRiverQueue(pool, bus)
//	bus.UseQueue(q)
//	bus.MarkAsync("user.created")
//	err = bus.Publish(ctx, e) // enqueued, not dispatched
//
// The queue stores one job per listener, addressed by the listener ID given
// to SubscribeAs, so a failing listener is retried without re-running the
// others. River needs its tables; run `anvil migrate` before starting the
// queue.
//
// WithSchedule publishes events on cron schedules through River periodic
// jobs, fired once per occurrence by the elected leader:
//
//	q, err := event.NewRiverQueue(pool, bus, event.WithSchedule("reports.daily", "0 6 * * *"))
//
// Without a database, Scheduler fires schedules in-process:
//
//	s := event.NewScheduler(bus)
//	s.Add("sessions.cleanup", "@hourly")
//	s.Start(ctx)
package event
