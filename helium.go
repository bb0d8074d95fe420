// Package helium provides a top-level convenience entry point for
// assembling the research team with minimal boilerplate.
//
// Usage:
//
//	import "github.com/aman1195/helium"
//
//	leader := helium.NewTeam()
//	leader := helium.NewTeam(helium.WithLogger(logger), helium.WithSearcher(client))
//
//	resp, err := leader.Process(ctx, agent.NewTask("analyze the widget market"))
//
// This is a thin wrapper around [team.New] with in-memory defaults.
// Services embedding the team into a larger stack should call
// [team.New] directly with their own configuration and dependencies.
package helium

import (
	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/cache"
	"github.com/aman1195/helium/memory"
	"github.com/aman1195/helium/rag"
	"github.com/aman1195/helium/team"
	"github.com/aman1195/helium/tools/websearch"
)

// Option configures the team created by [NewTeam].
type Option func(*options)

type options struct {
	cfg  config.TeamConfig
	deps team.Deps
}

// WithConfig replaces the default team configuration.
func WithConfig(cfg config.TeamConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.deps.Logger = logger }
}

// WithMemory replaces the default in-memory agent memory store.
func WithMemory(store memory.Store) Option {
	return func(o *options) { o.deps.Memory = store }
}

// WithSearcher gives the analyst a web search client.
func WithSearcher(searcher websearch.Searcher) Option {
	return func(o *options) { o.deps.Searcher = searcher }
}

// WithCache shares a Redis result cache with the team.
func WithCache(manager *cache.Manager) Option {
	return func(o *options) { o.deps.Cache = manager }
}

// WithRetriever gives the analyst a retrieval engine for indexing and
// recalling research findings.
func WithRetriever(engine *rag.Engine) Option {
	return func(o *options) { o.deps.Rag = engine }
}

// NewTeam assembles Zane and the specialists with in-memory defaults.
func NewTeam(opts ...Option) *team.Leader {
	o := &options{cfg: config.DefaultTeamConfig()}
	for _, opt := range opts {
		opt(o)
	}
	if o.deps.Memory == nil {
		o.deps.Memory = memory.NewInMemoryStore(memory.InMemoryConfig{}, o.deps.Logger)
	}
	return team.New(o.cfg, o.deps)
}
