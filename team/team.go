package team

import (
	"go.uber.org/zap"

	"github.com/aman1195/helium/config"
	"github.com/aman1195/helium/internal/cache"
	"github.com/aman1195/helium/internal/metrics"
	"github.com/aman1195/helium/memory"
	"github.com/aman1195/helium/rag"
	"github.com/aman1195/helium/tools/websearch"
)

// Deps carries the shared infrastructure the team is assembled with.
// Only Memory is required; everything else degrades gracefully.
type Deps struct {
	Memory   memory.Store
	Searcher websearch.Searcher
	Cache    *cache.Manager
	Rag      *rag.Engine
	Metrics  *metrics.Collector
	Logger   *zap.Logger
}

// New assembles the default Helium research team: Zane leading Mira,
// Chloe, and Axel.
func New(cfg config.TeamConfig, deps Deps) *Leader {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	leader := NewLeader(LeaderConfig{
		Memory:        deps.Memory,
		Logger:        logger,
		MemberTimeout: cfg.MemberTimeout,
		Metrics:       deps.Metrics,
	})

	leader.RegisterMember(NewAnalyst(AnalystConfig{
		Memory:    deps.Memory,
		Logger:    logger,
		Searcher:  deps.Searcher,
		Cache:     deps.Cache,
		Retriever: deps.Rag,
		Metrics:   deps.Metrics,
	}))
	leader.RegisterMember(NewAdvisor(AdvisorConfig{
		Memory:  deps.Memory,
		Logger:  logger,
		Metrics: deps.Metrics,
	}))
	leader.RegisterMember(NewStrategist(StrategistConfig{
		Memory:  deps.Memory,
		Logger:  logger,
		Metrics: deps.Metrics,
	}))

	return leader
}
