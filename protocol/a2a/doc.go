// Package a2a implements the agent-to-agent protocol: JSON message
// envelopes, agent discovery cards, an HTTP server exposing local
// agents (sync messages, async tasks with persistence and polling,
// websocket streaming), and a client for talking to remote peers.
package a2a
