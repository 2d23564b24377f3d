// Package shutdown provides graceful shutdown for warmd.
//
// This package handles process termination:
//
//   - Signal handling (SIGINT, SIGTERM) via WithSignals and Handler
//   - Ordered shutdown hooks bounded by a timeout
//   - An exit-hook registry for cleanup that must also happen when the
//     process dies without a graceful shutdown
//
// Usage:
//
//	ctx, cancel := shutdown.WithSignals(context.Background())
//	defer cancel()
//	defer shutdown.RunOnPanic()
//
//	unregister := shutdown.RegisterExitHook("lock", lock.Release)
//	defer unregister()
//	<-ctx.Done() // Wait for shutdown signal
package shutdown
