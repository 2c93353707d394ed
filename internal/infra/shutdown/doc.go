// Package shutdown coordinates graceful termination of the agent.
//
// A Handler waits for SIGINT, SIGTERM or a programmatic Trigger (the
// device restart route), then runs the registered hooks in reverse order
// under a shared timeout.
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown(srv.Shutdown)
//	reason, err := h.Wait()
package shutdown
