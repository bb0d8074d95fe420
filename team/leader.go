package team

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aman1195/helium/agent"
	"github.com/aman1195/helium/internal/metrics"
	"github.com/aman1195/helium/memory"
	"github.com/aman1195/helium/types"
)

// tracer instruments leader delegation.
var tracer = otel.Tracer("helium/team")

// greetings that get the capability summary fast-path. The whole task
// must be the greeting, not merely contain it.
var greetings = map[string]bool{
	"hi":        true,
	"hello":     true,
	"hey":       true,
	"greetings": true,
}

// Leader is Zane, the team leader. He routes tasks to specialists by
// keyword, logs every delegation to his memory, and answers directly
// when no specialist fits.
type Leader struct {
	*agent.BaseAgent

	router        *Router
	memberTimeout time.Duration
	metrics       *metrics.Collector

	mu      sync.RWMutex
	members map[string]agent.Agent
}

// LeaderConfig configures Zane.
type LeaderConfig struct {
	Memory memory.Store
	Logger *zap.Logger

	// Router defaults to DefaultRules.
	Router *Router

	// MemberTimeout bounds a single delegated execution. 0 means no
	// extra deadline beyond the caller's context.
	MemberTimeout time.Duration

	Metrics *metrics.Collector
}

// NewLeader creates Zane with no members registered.
func NewLeader(cfg LeaderConfig) *Leader {
	router := cfg.Router
	if router == nil {
		router = NewRouter(DefaultRules())
	}
	return &Leader{
		BaseAgent: agent.NewBaseAgent(agent.BaseConfig{
			ID:           LeaderID,
			Name:         "Zane",
			Role:         "Team Leader",
			Capabilities: []string{"route", "delegate", "status"},
			Memory:       cfg.Memory,
			Logger:       cfg.Logger,
		}),
		router:        router,
		memberTimeout: cfg.MemberTimeout,
		metrics:       cfg.Metrics,
		members:       make(map[string]agent.Agent),
	}
}

// RegisterMember adds a specialist Zane can delegate to.
func (l *Leader) RegisterMember(a agent.Agent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.members[a.ID()] = a
	l.Logger().Info("team member registered",
		zap.String("member_id", a.ID()),
		zap.String("role", a.Role()),
	)
}

// Member returns a registered member by ID.
func (l *Leader) Member(id string) (agent.Agent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	a, ok := l.members[id]
	return a, ok
}

// Members returns all registered members sorted by name.
func (l *Leader) Members() []agent.Agent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]agent.Agent, 0, len(l.members))
	for _, a := range l.members {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Process routes the task: greeting fast-path, then keyword routing to
// a specialist, then direct handling.
func (l *Leader) Process(ctx context.Context, task *agent.Task) (*agent.Response, error) {
	if err := l.ValidateTask(ctx, task); err != nil {
		return nil, err
	}

	start := l.Now()
	l.Logger().Info("leader received task",
		zap.String("task_id", task.ID),
		zap.String("content", task.Content),
	)

	if greetings[strings.ToLower(strings.TrimSpace(task.Content))] {
		resp := l.greet(task)
		resp.Duration = l.Now().Sub(start)
		return resp, nil
	}

	if memberID, keyword, ok := l.router.Route(task.Content); ok {
		return l.delegate(ctx, task, memberID, keyword, start)
	}

	resp := l.handleDirectly(task)
	resp.Duration = l.Now().Sub(start)
	l.Remember(ctx, memory.KindTask, task.Content, map[string]string{"handled": "directly"})
	return resp, nil
}

// delegate executes the task through a member and records the
// delegation in leader memory before returning.
func (l *Leader) delegate(ctx context.Context, task *agent.Task, memberID, keyword string, start time.Time) (*agent.Response, error) {
	ctx, span := tracer.Start(ctx, "team.delegate",
		trace.WithAttributes(
			attribute.String("task.id", task.ID),
			attribute.String("member.id", memberID),
			attribute.String("route.keyword", keyword),
		))
	defer span.End()

	member, ok := l.Member(memberID)
	if !ok {
		return nil, types.Errorf(types.ErrAgentNotFound,
			"%s is not part of the team yet", memberID)
	}

	l.Logger().Info("delegating task",
		zap.String("task_id", task.ID),
		zap.String("to", memberID),
		zap.String("keyword", keyword),
	)
	if l.metrics != nil {
		l.metrics.RecordDelegation(memberID)
	}

	execCtx := ctx
	if l.memberTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, l.memberTimeout)
		defer cancel()
	}

	resp, err := member.Process(execCtx, task)

	outcome := "success"
	summary := ""
	if err != nil {
		outcome = "failed"
		summary = err.Error()
	} else {
		summary = firstLine(resp.Content)
	}
	l.Remember(ctx, memory.KindDelegation,
		fmt.Sprintf("delegated to %s: %s", member.Name(), task.Content),
		map[string]string{
			"to":     memberID,
			"task":   task.Content,
			"result": outcome,
			"detail": summary,
		})

	if err != nil {
		return nil, fmt.Errorf("delegation to %s failed: %w", member.Name(), err)
	}

	resp.Duration = l.Now().Sub(start)
	return resp, nil
}

// greet answers a bare greeting with the team capability summary.
func (l *Leader) greet(task *agent.Task) *agent.Response {
	data := map[string]any{
		"message": "Hello! I'm Zane, your team leader. I can help you with:" +
			"\n• Data analysis and research (ask Mira)" +
			"\n• Financial insights and valuations (ask Chloe)" +
			"\n• Business strategy and planning (ask Axel)" +
			"\n\nHow can I assist you today?",
		"suggestions": []string{
			"Analyze market data",
			"Financial projections",
			"Business strategy",
		},
	}
	return l.NewResponse(task, data["message"].(string), data)
}

// handleDirectly answers a task no routing rule matched.
func (l *Leader) handleDirectly(task *agent.Task) *agent.Response {
	data := map[string]any{
		"message": fmt.Sprintf(
			"I've received your request about: %s\n\nI can help connect you with the right expert. Could you tell me more about what you're looking for?",
			task.Content),
		"suggestions": []string{
			"I need data analysis",
			"I need financial insights",
			"I need business strategy",
		},
	}
	return l.NewResponse(task, data["message"].(string), data)
}

// MemberInfo describes one roster entry in a status report.
type MemberInfo struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

// Status is the team status report.
type Status struct {
	Members          []MemberInfo     `json:"team_members"`
	RecentActivities []*memory.Record `json:"recent_activities"`
	Status           string           `json:"status"`
}

// TeamStatus reports the roster and the last five delegations.
func (l *Leader) TeamStatus(ctx context.Context) *Status {
	members := l.Members()
	infos := make([]MemberInfo, 0, len(members))
	for _, m := range members {
		infos = append(infos, MemberInfo{
			ID:           m.ID(),
			Name:         m.Name(),
			Role:         m.Role(),
			Capabilities: m.Capabilities(),
		})
	}
	return &Status{
		Members:          infos,
		RecentActivities: l.RecentMemory(ctx, 5),
		Status:           "operational",
	}
}

// Section is one member's contribution to a composite report.
type Section struct {
	AgentID   string         `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	Success   bool           `json:"success"`
	Content   string         `json:"content"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Report is the composite produced by ResearchAll.
type Report struct {
	TaskID   string        `json:"task_id"`
	Task     string        `json:"task"`
	Sections []Section     `json:"sections"`
	Duration time.Duration `json:"duration"`
}

// ResearchAll fans the task out to every member concurrently and
// aggregates their sections. A member failure degrades to an error
// section; it does not fail the report.
func (l *Leader) ResearchAll(ctx context.Context, task *agent.Task) (*Report, error) {
	if err := l.ValidateTask(ctx, task); err != nil {
		return nil, err
	}

	start := l.Now()
	members := l.Members()
	sections := make([]Section, len(members))

	g, gctx := errgroup.WithContext(ctx)
	for i, member := range members {
		g.Go(func() error {
			execCtx := gctx
			if l.memberTimeout > 0 {
				var cancel context.CancelFunc
				execCtx, cancel = context.WithTimeout(gctx, l.memberTimeout)
				defer cancel()
			}

			resp, err := member.Process(execCtx, task)
			if err != nil {
				l.Logger().Warn("member failed during fan-out",
					zap.String("member_id", member.ID()),
					zap.Error(err),
				)
				sections[i] = Section{
					AgentID:   member.ID(),
					AgentName: member.Name(),
					Success:   false,
					Error:     err.Error(),
				}
				return nil
			}
			sections[i] = Section{
				AgentID:   member.ID(),
				AgentName: member.Name(),
				Success:   true,
				Content:   resp.Content,
				Data:      resp.Data,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.Remember(ctx, memory.KindTask, "full-team research: "+task.Content,
		map[string]string{"members": fmt.Sprintf("%d", len(members))})

	return &Report{
		TaskID:   task.ID,
		Task:     task.Content,
		Sections: sections,
		Duration: l.Now().Sub(start),
	}, nil
}

// firstLine returns the first line of s, truncated to 140 runes.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	runes := []rune(s)
	if len(runes) > 140 {
		return string(runes[:140])
	}
	return s
}
