package a2a

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aman1195/helium/agent"
	"github.com/aman1195/helium/internal/metrics"
	"github.com/aman1195/helium/taskstore"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultMaxBodyBytes   = 1 << 20 // 1 MiB
)

// ServerConfig configures the A2A HTTP server.
type ServerConfig struct {
	// BaseURL is the externally visible address, used in agent cards.
	BaseURL string

	// DefaultAgentID receives messages addressed to an unknown or
	// empty recipient. Leave empty to reject such messages.
	DefaultAgentID string

	// RequestTimeout bounds synchronous task execution.
	RequestTimeout time.Duration

	// Version is reported in agent cards.
	Version string

	EnableAuth bool
	AuthToken  string

	// MaxBodyBytes limits inbound request bodies.
	MaxBodyBytes int64

	// Store persists async tasks. Defaults to an in-memory store.
	Store taskstore.Store

	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// HTTPServer exposes local agents over the A2A protocol: discovery
// cards, synchronous messaging, async task submission with polling,
// and a websocket stream.
type HTTPServer struct {
	cfg   ServerConfig
	store taskstore.Store

	mu     sync.RWMutex
	agents map[string]agent.Agent
	cards  map[string]*AgentCard

	inflightMu sync.Mutex
	inflight   map[string]context.CancelFunc

	metrics *metrics.Collector
	logger  *zap.Logger

	cleanupStop chan struct{}
	cleanupOnce sync.Once
}

// NewHTTPServer builds an A2A server. Register agents before serving.
func NewHTTPServer(cfg ServerConfig) *HTTPServer {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := cfg.Store
	if store == nil {
		store = taskstore.NewMemoryStore(taskstore.MemoryConfig{}, logger)
	}
	return &HTTPServer{
		cfg:         cfg,
		store:       store,
		agents:      make(map[string]agent.Agent),
		cards:       make(map[string]*AgentCard),
		inflight:    make(map[string]context.CancelFunc),
		metrics:     cfg.Metrics,
		logger:      logger.With(zap.String("component", "a2a_server")),
		cleanupStop: make(chan struct{}),
	}
}

// RegisterAgent makes an agent addressable over the protocol and
// caches its discovery card.
func (s *HTTPServer) RegisterAgent(a agent.Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID()] = a
	s.cards[a.ID()] = CardFromAgent(a, s.cfg.BaseURL, s.cfg.Version)
	s.logger.Info("agent registered",
		zap.String("agent_id", a.ID()),
		zap.String("agent_name", a.Name()))
}

// UnregisterAgent removes an agent from the server.
func (s *HTTPServer) UnregisterAgent(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.agents, agentID)
	delete(s.cards, agentID)
}

// Agents returns the registered agent IDs, sorted.
func (s *HTTPServer) Agents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ServeHTTP routes A2A protocol requests.
func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("panic in a2a handler",
				zap.Any("panic", rec),
				zap.String("path", r.URL.Path))
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
	}()

	path := r.URL.Path

	// The discovery document is public.
	if path == "/.well-known/agent.json" && r.Method == http.MethodGet {
		s.handleWellKnown(w, r)
		return
	}

	if !s.authorize(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or missing bearer token")
		return
	}

	switch {
	case path == "/a2a/messages" && r.Method == http.MethodPost:
		s.handleMessage(w, r)
	case path == "/a2a/messages/async" && r.Method == http.MethodPost:
		s.handleMessageAsync(w, r)
	case path == "/a2a/agents" && r.Method == http.MethodGet:
		s.handleListAgents(w, r)
	case strings.HasPrefix(path, "/a2a/agents/") && strings.HasSuffix(path, "/card") && r.Method == http.MethodGet:
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/a2a/agents/"), "/card")
		s.handleAgentCard(w, r, id)
	case strings.HasPrefix(path, "/a2a/tasks/") && strings.HasSuffix(path, "/result") && r.Method == http.MethodGet:
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/a2a/tasks/"), "/result")
		s.handleTaskResult(w, r, id)
	case strings.HasPrefix(path, "/a2a/tasks/") && strings.HasSuffix(path, "/cancel") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/a2a/tasks/"), "/cancel")
		s.handleTaskCancel(w, r, id)
	case strings.HasPrefix(path, "/a2a/tasks/") && r.Method == http.MethodGet:
		id := strings.TrimPrefix(path, "/a2a/tasks/")
		s.handleTaskStatus(w, r, id)
	case path == "/a2a/stream":
		s.handleStream(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown a2a endpoint")
	}
}

func (s *HTTPServer) authorize(r *http.Request) bool {
	if !s.cfg.EnableAuth {
		return true
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) == 1
}

func (s *HTTPServer) handleWellKnown(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	card := s.cards[s.cfg.DefaultAgentID]
	if card == nil {
		// No designated default: publish any registered card.
		for _, c := range s.cards {
			card = c
			break
		}
	}
	s.mu.RUnlock()
	if card == nil {
		writeError(w, http.StatusNotFound, "no_agents", "no agents registered")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *HTTPServer) handleListAgents(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	cards := make([]*AgentCard, 0, len(s.cards))
	for _, c := range s.cards {
		cards = append(cards, c)
	}
	s.mu.RUnlock()
	sort.Slice(cards, func(i, j int) bool { return cards[i].Name < cards[j].Name })
	writeJSON(w, http.StatusOK, map[string]any{"agents": cards, "count": len(cards)})
}

func (s *HTTPServer) handleAgentCard(w http.ResponseWriter, _ *http.Request, agentID string) {
	s.mu.RLock()
	card, ok := s.cards[agentID]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "agent_not_found", fmt.Sprintf("agent %q is not registered", agentID))
		return
	}
	writeJSON(w, http.StatusOK, card)
}

func (s *HTTPServer) readMessage(w http.ResponseWriter, r *http.Request) (*Message, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	var msg Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "invalid_message", "malformed JSON message")
		return nil, false
	}
	if err := msg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_message", err.Error())
		return nil, false
	}
	return &msg, true
}

// resolveAgent finds the recipient, falling back to the default agent.
func (s *HTTPServer) resolveAgent(to string) (agent.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.agents[to]; ok {
		return a, true
	}
	if s.cfg.DefaultAgentID != "" {
		if a, ok := s.agents[s.cfg.DefaultAgentID]; ok {
			return a, true
		}
	}
	return nil, false
}

func (s *HTTPServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.readMessage(w, r)
	if !ok {
		s.recordMessage("unknown", "invalid")
		return
	}

	switch msg.Type {
	case MessageTypeTask:
		s.handleTaskMessage(w, r, msg)
	case MessageTypeCancel:
		s.handleCancelMessage(w, msg)
	case MessageTypeStatus, MessageTypeResult, MessageTypeError:
		// Notifications from peers are acknowledged, not acted on.
		s.recordMessage(string(msg.Type), "success")
		writeJSON(w, http.StatusOK, msg.CreateReply(MessageTypeStatus, StatusPayload{State: "received"}))
	default:
		s.recordMessage(string(msg.Type), "invalid")
		writeError(w, http.StatusBadRequest, "invalid_message", "unsupported message type")
	}
}

func (s *HTTPServer) handleTaskMessage(w http.ResponseWriter, r *http.Request, msg *Message) {
	target, ok := s.resolveAgent(msg.To)
	if !ok {
		s.recordMessage(string(msg.Type), "error")
		writeJSON(w, http.StatusOK, msg.CreateReply(MessageTypeError, ErrorPayload{
			Code:    "agent_not_found",
			Message: fmt.Sprintf("no agent registered as %q and no default agent configured", msg.To),
		}))
		return
	}

	payload, err := DecodePayload[TaskPayload](msg.Payload)
	if err != nil || payload.Task == "" {
		s.recordMessage(string(msg.Type), "invalid")
		writeError(w, http.StatusBadRequest, "invalid_payload", "task payload requires a non-empty task")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	result := s.execute(ctx, target, payload)
	status := "success"
	if !result.Success {
		status = "error"
	}
	s.recordMessage(string(msg.Type), status)
	writeJSON(w, http.StatusOK, msg.CreateReply(MessageTypeResult, result))
}

func (s *HTTPServer) handleCancelMessage(w http.ResponseWriter, msg *Message) {
	if msg.ReplyTo == "" {
		writeError(w, http.StatusBadRequest, "invalid_message", "cancel message requires reply_to set to a task id")
		return
	}
	state, err := s.cancelTask(context.Background(), msg.ReplyTo)
	if err != nil {
		if errors.Is(err, taskstore.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task_not_found", "unknown task")
			return
		}
		writeError(w, http.StatusInternalServerError, "cancel_failed", err.Error())
		return
	}
	s.recordMessage(string(msg.Type), "success")
	writeJSON(w, http.StatusOK, msg.CreateReply(MessageTypeStatus, StatusPayload{State: string(state)}))
}

// execute runs a task payload on a local agent and shapes the result.
func (s *HTTPServer) execute(ctx context.Context, target agent.Agent, payload TaskPayload) ResultPayload {
	task := agent.NewTask(payload.Task)
	if payload.SessionID != "" {
		task = task.WithSession(payload.SessionID)
	}
	if payload.Context != nil {
		task.Context = payload.Context
	}

	start := time.Now()
	resp, err := target.Process(ctx, task)
	if err != nil {
		s.logger.Warn("task execution failed",
			zap.String("agent_id", target.ID()),
			zap.Error(err))
		return ResultPayload{
			Success:    false,
			Content:    err.Error(),
			AgentID:    target.ID(),
			DurationMS: time.Since(start).Milliseconds(),
		}
	}
	return ResultPayload{
		Success:    resp.Success,
		Content:    resp.Content,
		Data:       resp.Data,
		AgentID:    resp.AgentID,
		DurationMS: time.Since(start).Milliseconds(),
	}
}

func (s *HTTPServer) handleMessageAsync(w http.ResponseWriter, r *http.Request) {
	msg, ok := s.readMessage(w, r)
	if !ok {
		s.recordMessage("unknown", "invalid")
		return
	}
	if msg.Type != MessageTypeTask {
		writeError(w, http.StatusBadRequest, "invalid_message", "async submission accepts task messages only")
		return
	}

	target, ok := s.resolveAgent(msg.To)
	if !ok {
		s.recordMessage(string(msg.Type), "error")
		writeError(w, http.StatusNotFound, "agent_not_found",
			fmt.Sprintf("no agent registered as %q and no default agent configured", msg.To))
		return
	}

	payload, err := DecodePayload[TaskPayload](msg.Payload)
	if err != nil || payload.Task == "" {
		s.recordMessage(string(msg.Type), "invalid")
		writeError(w, http.StatusBadRequest, "invalid_payload", "task payload requires a non-empty task")
		return
	}

	task := &taskstore.Task{
		SessionID: payload.SessionID,
		AgentID:   target.ID(),
		Type:      "a2a_task",
		Status:    taskstore.StatusPending,
		Input: map[string]any{
			"task":       payload.Task,
			"session_id": payload.SessionID,
			"context":    payload.Context,
			"from":       msg.From,
		},
	}
	if err := s.store.SaveTask(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, "store_error", "failed to persist task")
		return
	}

	s.runAsync(task, target, payload)
	s.recordMessage(string(msg.Type), "accepted")
	s.updatePendingGauge()

	writeJSON(w, http.StatusAccepted, map[string]any{
		"task_id": task.ID,
		"state":   string(taskstore.StatusPending),
	})
}

// runAsync executes a persisted task in the background and tracks its
// cancel function so the cancel endpoint can abort it.
func (s *HTTPServer) runAsync(task *taskstore.Task, target agent.Agent, payload TaskPayload) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)

	s.inflightMu.Lock()
	s.inflight[task.ID] = cancel
	s.inflightMu.Unlock()

	go func() {
		defer func() {
			cancel()
			s.inflightMu.Lock()
			delete(s.inflight, task.ID)
			s.inflightMu.Unlock()
			s.updatePendingGauge()
		}()

		if err := s.store.UpdateStatus(ctx, task.ID, taskstore.StatusRunning, nil, ""); err != nil {
			// Already cancelled or gone.
			return
		}

		result := s.execute(ctx, target, payload)

		if ctx.Err() != nil {
			// Cancelled or timed out mid-flight; the cancel endpoint
			// (or timeout below) owns the terminal transition.
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				_ = s.store.UpdateStatus(context.Background(), task.ID, taskstore.StatusFailed, nil, "task timed out")
			}
			return
		}

		if result.Success {
			_ = s.store.UpdateStatus(ctx, task.ID, taskstore.StatusCompleted, result, "")
		} else {
			_ = s.store.UpdateStatus(ctx, task.ID, taskstore.StatusFailed, nil, result.Content)
		}
	}()
}

func (s *HTTPServer) handleTaskStatus(w http.ResponseWriter, r *http.Request, taskID string) {
	task, err := s.store.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, taskstore.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task_not_found", "unknown task")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *HTTPServer) handleTaskResult(w http.ResponseWriter, r *http.Request, taskID string) {
	task, err := s.store.GetTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, taskstore.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task_not_found", "unknown task")
			return
		}
		writeError(w, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	if !task.IsTerminal() {
		writeJSON(w, http.StatusAccepted, map[string]any{
			"task_id": task.ID,
			"state":   string(task.Status),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id": task.ID,
		"state":   string(task.Status),
		"result":  task.Result,
		"error":   task.Error,
	})
}

func (s *HTTPServer) handleTaskCancel(w http.ResponseWriter, r *http.Request, taskID string) {
	state, err := s.cancelTask(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, taskstore.ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task_not_found", "unknown task")
			return
		}
		writeError(w, http.StatusInternalServerError, "cancel_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"task_id": taskID,
		"state":   string(state),
	})
}

// cancelTask aborts a task if it is still live. Cancelling a terminal
// task is a no-op that reports the current state.
func (s *HTTPServer) cancelTask(ctx context.Context, taskID string) (taskstore.Status, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return "", err
	}
	if task.IsTerminal() {
		return task.Status, nil
	}

	s.inflightMu.Lock()
	cancel, running := s.inflight[taskID]
	delete(s.inflight, taskID)
	s.inflightMu.Unlock()
	if running {
		cancel()
	}

	if err := s.store.UpdateStatus(ctx, taskID, taskstore.StatusCancelled, nil, "cancelled by request"); err != nil {
		if errors.Is(err, taskstore.ErrTaskFinished) {
			// The worker finished in the gap; report what it reached.
			if t, gerr := s.store.GetTask(ctx, taskID); gerr == nil {
				return t.Status, nil
			}
		}
		return "", err
	}
	s.updatePendingGauge()
	return taskstore.StatusCancelled, nil
}

// RecoverTasks re-executes tasks that were pending or running when the
// process last stopped. Call once at startup, after registering agents.
func (s *HTTPServer) RecoverTasks(ctx context.Context) int {
	tasks, err := s.store.RecoverableTasks(ctx)
	if err != nil {
		s.logger.Error("task recovery failed", zap.Error(err))
		return 0
	}

	recovered := 0
	for _, task := range tasks {
		target, ok := s.resolveAgent(task.AgentID)
		if !ok {
			_ = s.store.UpdateStatus(ctx, task.ID, taskstore.StatusFailed, nil,
				fmt.Sprintf("agent %q no longer registered", task.AgentID))
			continue
		}
		payload := TaskPayload{SessionID: task.SessionID}
		if v, ok := task.Input["task"].(string); ok {
			payload.Task = v
		}
		if v, ok := task.Input["context"].(map[string]any); ok {
			payload.Context = v
		}
		if payload.Task == "" {
			_ = s.store.UpdateStatus(ctx, task.ID, taskstore.StatusFailed, nil, "recovered task has no input")
			continue
		}
		// Reset to pending so the worker's running transition is valid.
		_ = s.store.UpdateStatus(ctx, task.ID, taskstore.StatusPending, nil, "")
		s.runAsync(task, target, payload)
		recovered++
	}
	if recovered > 0 {
		s.logger.Info("recovered interrupted tasks", zap.Int("count", recovered))
	}
	return recovered
}

// StartCleanupLoop periodically deletes terminal tasks older than
// retention. Stop the loop with Close.
func (s *HTTPServer) StartCleanupLoop(interval, retention time.Duration) {
	if interval <= 0 || retention <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				n, err := s.store.Cleanup(context.Background(), retention)
				if err != nil {
					s.logger.Warn("task cleanup failed", zap.Error(err))
				} else if n > 0 {
					s.logger.Info("cleaned up finished tasks", zap.Int("removed", n))
				}
			case <-s.cleanupStop:
				return
			}
		}
	}()
}

// Close stops background loops and cancels in-flight tasks. The task
// store is left open; it is owned by the caller when injected.
func (s *HTTPServer) Close() error {
	s.cleanupOnce.Do(func() { close(s.cleanupStop) })
	s.inflightMu.Lock()
	for id, cancel := range s.inflight {
		cancel()
		delete(s.inflight, id)
	}
	s.inflightMu.Unlock()
	if s.cfg.Store == nil {
		return s.store.Close()
	}
	return nil
}

func (s *HTTPServer) recordMessage(msgType, status string) {
	if s.metrics != nil {
		s.metrics.RecordA2AMessage(msgType, status)
	}
}

func (s *HTTPServer) updatePendingGauge() {
	if s.metrics == nil {
		return
	}
	stats, err := s.store.Stats(context.Background())
	if err != nil {
		return
	}
	pending := stats.ByStatus[taskstore.StatusPending] + stats.ByStatus[taskstore.StatusRunning]
	s.metrics.SetAsyncTasksPending(pending)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
