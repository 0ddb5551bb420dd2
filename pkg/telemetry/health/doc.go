// Package health provides liveness and readiness probes for the vulcan
// audit API, plus a version information endpoint.
//
// Liveness (/health) only confirms the process is running. Readiness
// (/ready) runs every registered component check concurrently and reports
// 503 when any component is unhealthy, so orchestrators stop routing
// traffic while, say, the ledger backend is unreachable.
//
// Usage:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("ledger", func(ctx context.Context) error {
//	    _, err := store.List(ctx, &ledger.Query{Limit: 1})
//	    return err
//	})
//	mux.Handle("GET /health", checker.LivenessHandler())
//	mux.Handle("GET /ready", checker.ReadinessHandler())
package health
