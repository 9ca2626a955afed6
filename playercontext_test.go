package lavalink

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClientWithServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	node := &Node{id: 0}
	node.transport = &transport{
		httpClient:  server.Client(),
		base:        server.URL,
		password:    "pw",
		botUserId:   1,
		libraryName: "test",
		sessionId:   node.SessionId,
	}
	node.setSessionId("sess")

	c := &Client{
		nodes:    []*Node{node},
		strategy: NewShardedStrategy(),
		registry: make(map[GuildId]*registryEntry),
		logger:   zap.NewNop(),
		userData: newUserDataSlot(nil),
	}
	return c, server
}

func newTestContext(c *Client, guildId GuildId) *PlayerContext {
	inner := newPlayerContextInner(c, guildId, Player{GuildId: guildId})
	ctx := inner.handle()
	go inner.run()
	c.registry[guildId] = &registryEntry{node: c.nodes[0], context: ctx, inner: inner}
	return ctx
}

func TestPlayerContext_TrackFinishedAdvancesQueue(t *testing.T) {
	var patchCount atomic.Int32
	var lastBody UpdatePlayerRequest

	c, _ := newTestClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patchCount.Add(1)
			json.NewDecoder(r.Body).Decode(&lastBody)
		}
		json.NewEncoder(w).Encode(Player{GuildId: 42})
	})

	ctx := newTestContext(c, 42)
	ctx.Queue(QueueOp{Kind: QueuePushBack, Tracks: []TrackInQueue{
		{Track: TrackData{Encoded: "track-a"}},
	}})

	ctx.TrackFinished(true)

	require.Eventually(t, func() bool { return patchCount.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NotNil(t, lastBody.EncodedTrack)
	assert.Equal(t, "track-a", *lastBody.EncodedTrack)
}

func TestPlayerContext_StoppedDoesNotAdvanceQueue(t *testing.T) {
	var patchCount atomic.Int32
	c, _ := newTestClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patchCount.Add(1)
		}
		json.NewEncoder(w).Encode(Player{GuildId: 42})
	})

	ctx := newTestContext(c, 42)
	ctx.Queue(QueueOp{Kind: QueuePushBack, Tracks: []TrackInQueue{
		{Track: TrackData{Encoded: "track-a"}},
	}})

	ctx.TrackFinished(false)

	// Give the actor a moment; no PATCH should ever fire.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), patchCount.Load())

	queue := ctx.GetQueue()
	assert.Len(t, queue, 1)
}

func TestPlayerContext_QueueReplace(t *testing.T) {
	c, _ := newTestClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Player{GuildId: 42})
	})
	ctx := newTestContext(c, 42)

	ctx.Queue(QueueOp{Kind: QueuePushBack, Tracks: []TrackInQueue{
		{Track: TrackData{Encoded: "a"}},
		{Track: TrackData{Encoded: "b"}},
		{Track: TrackData{Encoded: "c"}},
	}})
	ctx.Queue(QueueOp{Kind: QueueReplace, Tracks: []TrackInQueue{
		{Track: TrackData{Encoded: "x"}},
		{Track: TrackData{Encoded: "y"}},
	}})

	queue := ctx.GetQueue()
	require.Len(t, queue, 2)
	assert.Equal(t, "x", queue[0].Track.Encoded)
	assert.Equal(t, "y", queue[1].Track.Encoded)
}

func TestPlayerContext_GetPlayerReflectsUpdates(t *testing.T) {
	c, _ := newTestClientWithServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Player{GuildId: 42})
	})
	ctx := newTestContext(c, 42)

	ctx.UpdatePlayerState(State{Position: 1234, Connected: true})

	require.Eventually(t, func() bool {
		return ctx.GetPlayer().State.Position == 1234
	}, time.Second, 5*time.Millisecond)
}
