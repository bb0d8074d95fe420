// Package handlers implements the helium HTTP endpoints: research
// turns routed through the team leader, roster and status queries,
// conversation history, and health probes. All handlers speak JSON and
// share the Response envelope from common.go.
package handlers
