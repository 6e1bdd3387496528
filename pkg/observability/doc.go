/*
Package observability turns playback lifecycle events into structured logs and
Prometheus metrics.

	hooks := observability.Combine(
		observability.LoggingHooks(logger),
		observability.MetricsHooks(),
	)
	eng := pathway.New(pathway.WithLifecycleHooks(hooks))
*/
package observability
