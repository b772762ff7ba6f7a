/*
Package resilience provides a circuit breaker for optional dependencies.

The signature solver puts its spec cache behind a Breaker. After Threshold
consecutive cache failures the breaker opens and the solver works uncached.
Once Cooldown has passed, a single trial call is let through. Success closes
the breaker again and failure reopens it.

	Closed --[Threshold failures]-> Open --[Cooldown]-> Half-Open --[success]-> Closed
	                                  ^                     |
	                                  +------[failure]------+

Usage:

	b := resilience.New("spec-cache", resilience.Settings{Threshold: 3})
	err := b.Do(func() error { return store.Put(key, data) })
	if errors.Is(err, resilience.ErrOpen) {
		// skipped
	}
*/
package resilience
