// Package shutdown coordinates graceful process termination.
//
// A Handler collects named hooks and runs them in reverse registration
// order, under one shared timeout, once SIGINT or SIGTERM arrives or the
// wait context is cancelled:
//
//	h := shutdown.NewHandler(10*time.Second, log)
//	h.OnShutdown("http server", srv.Shutdown)
//	if err := h.Wait(ctx); err != nil { ... }
package shutdown
