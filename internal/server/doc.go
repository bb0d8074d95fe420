// Package server manages HTTP server lifecycle: non-blocking start,
// graceful signal-driven shutdown, and asynchronous error reporting.
//
// Manager wraps net/http.Server and owns its listener, serve loop, and
// shutdown sequencing. The service binary composes its handler chain
// and hands it to a Manager:
//
//	m := server.NewManager(handler, server.Config{Addr: ":8080"}, logger)
//	if err := m.Start(); err != nil { ... }
//	m.WaitForShutdown()
//
// WaitForShutdown blocks on SIGINT/SIGTERM or a serve error and then
// drains in-flight requests within the configured shutdown timeout.
package server
