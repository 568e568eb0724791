/*
Package resilience provides a circuit breaker for slow or failing
dependencies.

# Usage

The session record service wraps every backend call in a breaker so that
a broken disk or database does not get hit on every scope switch:

	breaker := resilience.New("persistence", resilience.Settings{
		Threshold: 5,
		Cooldown:  30 * time.Second,
	})

	rec, err := resilience.Call(breaker, func() (*Record, error) {
		return backend.Load(ctx, key)
	})

# States

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[probe ok]-> Closed
	                                  ^                     |
	                                  +----[probe fails]----+
*/
package resilience
