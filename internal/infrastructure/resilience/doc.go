/*
Package resilience guards outbound provider calls with a circuit breaker.

A breaker starts closed. Once ReadyToTrip reports true for the counts of
the current interval it opens and rejects calls with ErrCircuitOpen until
Timeout has passed. It then lets up to MaxRequests trial calls through
(half-open); any failure reopens it, MaxRequests consecutive successes
close it.

	breaker := resilience.New("proxycurl", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
	err := breaker.Execute(func() error { return call(ctx) })
*/
package resilience
