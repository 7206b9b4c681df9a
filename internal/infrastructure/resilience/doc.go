/*
Package resilience provides the circuit breaker guarding the tunnel's HTTP
endpoint.

# Overview

When the Bare server is unreachable every tunneled request fails the same
way. The breaker turns a run of failures into fast ErrCircuitOpen errors
until the server has had time to recover. It never retries.

The caller classifies each exchange. Replies from the tunnel, tunnel faults
included, are OutcomeSuccess. Transport errors and gateway statuses in front
of the tunnel are OutcomeFailure. Cancellation is OutcomeIgnored: it frees a
half-open probe slot without counting either way.

# Usage

	breaker := resilience.New("bare-http", resilience.Settings{
		Cooldown: 30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 10
		},
	})

	report, err := breaker.Allow()
	if err != nil {
		return nil, err
	}
	resp, err := req.Execute(method, endpoint)
	report(classify(resp, err))

# States

	Closed --[failures]-> Open --[cooldown]-> Half-Open --[probes succeed]-> Closed
	                                            |
	                                     [failure]
	                                            |
	                                            v
	                                          Open
*/
package resilience
