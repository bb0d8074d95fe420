// Package api defines the request and response shapes of the helium
// HTTP surface. Handlers live in the handlers subpackage.
package api
