/*
Package observability binds engine lifecycle hooks to Prometheus collectors
and structured logs.

	m := observability.NewMetrics()
	eng := runtime.NewEngine(runtime.WithLifecycleHooks(
		observability.Combine(m.Hooks(), observability.LogHooks(logger)),
	))
	http.Handle("/metrics", m.Handler())
*/
package observability
