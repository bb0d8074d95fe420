package a2a

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_TaskRoundTrip(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, newStubAgent("echo"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := StreamDial(ctx, ts.URL, "")
	require.NoError(t, err)
	defer stream.Close()

	msg := NewTaskMessage("caller", "echo", TaskPayload{Task: "stream me"})
	require.NoError(t, stream.Send(ctx, msg))

	// First frame back is the acceptance status.
	ack, err := stream.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeStatus, ack.Type)
	assert.Equal(t, msg.ID, ack.ReplyTo)
	ackPayload, err := DecodePayload[StatusPayload](ack.Payload)
	require.NoError(t, err)
	assert.Equal(t, "accepted", ackPayload.State)

	result, err := stream.ReceiveResult(ctx, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeResult, result.Type)
	assert.Equal(t, msg.ID, result.ReplyTo)

	payload, err := DecodePayload[ResultPayload](result.Payload)
	require.NoError(t, err)
	assert.True(t, payload.Success)
	assert.Equal(t, "echo: stream me", payload.Content)
}

func TestStream_UnknownAgent(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, newStubAgent("echo"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := StreamDial(ctx, ts.URL, "")
	require.NoError(t, err)
	defer stream.Close()

	msg := NewTaskMessage("caller", "ghost", TaskPayload{Task: "anyone there"})
	require.NoError(t, stream.Send(ctx, msg))

	reply, err := stream.ReceiveResult(ctx, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeError, reply.Type)

	payload, err := DecodePayload[ErrorPayload](reply.Payload)
	require.NoError(t, err)
	assert.Equal(t, "agent_not_found", payload.Code)
}

func TestStream_RejectsNonTaskMessages(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{}, newStubAgent("echo"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := StreamDial(ctx, ts.URL, "")
	require.NoError(t, err)
	defer stream.Close()

	msg := NewStatusMessage("caller", "echo", StatusPayload{State: "chatty"})
	require.NoError(t, stream.Send(ctx, msg))

	reply, err := stream.ReceiveResult(ctx, 3*time.Second)
	require.NoError(t, err)
	assert.Equal(t, MessageTypeError, reply.Type)

	payload, err := DecodePayload[ErrorPayload](reply.Payload)
	require.NoError(t, err)
	assert.Equal(t, "invalid_message", payload.Code)
}
