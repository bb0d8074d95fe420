package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// streamConn wraps a websocket connection. Writes are mutex-guarded
// because the websocket does not support concurrent writes.
type streamConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *streamConn) writeMessage(ctx context.Context, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal stream message: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// handleStream upgrades the connection and serves A2A messages over
// it. The client sends task messages; for each one the server replies
// with a status message (accepted) and then the result. Malformed
// frames get an error message back without dropping the connection.
func (s *HTTPServer) handleStream(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	conn := &streamConn{conn: ws}
	defer ws.Close(websocket.StatusNormalClosure, "closing")

	s.logger.Debug("stream opened", zap.String("remote", r.RemoteAddr))

	ctx := r.Context()
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && ctx.Err() == nil {
				s.logger.Debug("stream read ended", zap.Error(err))
			}
			return
		}

		msg, perr := ParseMessage(data)
		if perr != nil {
			_ = conn.writeMessage(ctx, NewErrorMessage("server", "client", "invalid_message", perr.Error()))
			continue
		}
		if msg.Type != MessageTypeTask {
			_ = conn.writeMessage(ctx, msg.CreateReply(MessageTypeError, ErrorPayload{
				Code:    "invalid_message",
				Message: "stream accepts task messages only",
			}))
			continue
		}

		target, ok := s.resolveAgent(msg.To)
		if !ok {
			s.recordMessage(string(msg.Type), "error")
			_ = conn.writeMessage(ctx, msg.CreateReply(MessageTypeError, ErrorPayload{
				Code:    "agent_not_found",
				Message: fmt.Sprintf("no agent registered as %q and no default agent configured", msg.To),
			}))
			continue
		}

		payload, derr := DecodePayload[TaskPayload](msg.Payload)
		if derr != nil || payload.Task == "" {
			_ = conn.writeMessage(ctx, msg.CreateReply(MessageTypeError, ErrorPayload{
				Code:    "invalid_payload",
				Message: "task payload requires a non-empty task",
			}))
			continue
		}

		_ = conn.writeMessage(ctx, msg.CreateReply(MessageTypeStatus, StatusPayload{State: "accepted"}))

		// Execute off the read loop so a slow task does not block
		// further frames.
		wg.Add(1)
		go func(msg *Message, payload TaskPayload) {
			defer wg.Done()
			taskCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
			defer cancel()

			result := s.execute(taskCtx, target, payload)
			status := "success"
			if !result.Success {
				status = "error"
			}
			s.recordMessage(string(msg.Type), status)
			if err := conn.writeMessage(ctx, msg.CreateReply(MessageTypeResult, result)); err != nil {
				s.logger.Debug("stream result write failed", zap.Error(err))
			}
		}(msg, payload)
	}
}

// StreamDial connects to a peer's A2A stream endpoint. The caller owns
// the returned connection.
func StreamDial(ctx context.Context, baseURL, token string) (*StreamClient, error) {
	url := strings.TrimSuffix(baseURL, "/") + "/a2a/stream"
	url = strings.Replace(url, "http://", "ws://", 1)
	url = strings.Replace(url, "https://", "wss://", 1)

	opts := &websocket.DialOptions{}
	if token != "" {
		opts.HTTPHeader = http.Header{"Authorization": []string{"Bearer " + token}}
	}
	conn, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &StreamClient{conn: &streamConn{conn: conn}}, nil
}

// StreamClient is the client side of the A2A stream.
type StreamClient struct {
	conn *streamConn
}

// Send writes a message to the stream.
func (c *StreamClient) Send(ctx context.Context, msg *Message) error {
	return c.conn.writeMessage(ctx, msg)
}

// Receive reads and validates the next message from the stream.
func (c *StreamClient) Receive(ctx context.Context) (*Message, error) {
	_, data, err := c.conn.conn.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("websocket read: %w", err)
	}
	return ParseMessage(data)
}

// ReceiveResult reads messages until a result arrives, skipping status
// updates, or until the deadline passes.
func (c *StreamClient) ReceiveResult(ctx context.Context, timeout time.Duration) (*Message, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	for {
		msg, err := c.Receive(ctx)
		if err != nil {
			return nil, err
		}
		switch msg.Type {
		case MessageTypeResult, MessageTypeError:
			return msg, nil
		default:
			// keep waiting
		}
	}
}

// Close shuts down the stream connection.
func (c *StreamClient) Close() error {
	return c.conn.conn.Close(websocket.StatusNormalClosure, "closing")
}
