// Command helium runs the Helium multi-agent research service.
//
// Usage:
//
//	helium serve                      start the service
//	helium serve --config helium.yaml start with a config file
//	helium migrate up                 apply database migrations
//	helium version                    print build information
//	helium health                     probe a running instance
//
// The serve command assembles the full stack: the research team behind
// the service API, the A2A protocol endpoints, persistence, caching,
// retrieval, metrics, and tracing.
package main
