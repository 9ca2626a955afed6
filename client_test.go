package lavalink

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newFacadeTestClient(t *testing.T, handler http.HandlerFunc) *Client {
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

	return &Client{
		nodes:      []*Node{node},
		strategy:   NewShardedStrategy(),
		registry:   make(map[GuildId]*registryEntry),
		logger:     zap.NewNop(),
		userData:   newUserDataSlot(nil),
		rendezvous: newRendezvous(1),
		botUserId:  1,
	}
}

func TestClient_GetNodeForGuild_StickyBinding(t *testing.T) {
	c := newFacadeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Player{})
	})

	n1, err := c.getNodeForGuild(42)
	require.NoError(t, err)
	n2, err := c.getNodeForGuild(42)
	require.NoError(t, err)
	assert.Same(t, n1, n2)
}

func TestClient_CreatePlayerContext_Idempotent(t *testing.T) {
	var patchCount atomic.Int32
	c := newFacadeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patchCount.Add(1)
		}
		json.NewEncoder(w).Encode(Player{GuildId: 42})
	})

	info := ConnectionInfo{Endpoint: "gw", Token: "tok", SessionId: "sess"}

	var wg sync.WaitGroup
	results := make([]*PlayerContext, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ctx, err := c.CreatePlayerContext(42, info, nil)
			require.NoError(t, err)
			results[i] = ctx
		}(i)
	}
	wg.Wait()

	assert.Same(t, results[0], results[1])
	assert.LessOrEqual(t, patchCount.Load(), int32(2))

	ctx, ok := c.GetPlayerContext(42)
	require.True(t, ok)
	assert.Same(t, results[0], ctx)
}

func TestClient_LoadTracks_ErrorMapping(t *testing.T) {
	c := newFacadeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"loadType": "error",
			"data":     map[string]any{"message": "could not resolve", "severity": "common", "cause": "unknown"},
		})
	})

	_, err := c.LoadTracks(42, "bogus:identifier")
	require.Error(t, err)
	assert.True(t, IsProtocol(err))
	assert.Contains(t, err.Error(), "could not resolve")
}

func TestClient_DeletePlayer_ClearsRegistry(t *testing.T) {
	c := newFacadeTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Player{GuildId: 42})
	})

	_, err := c.CreatePlayerContext(42, ConnectionInfo{}, nil)
	require.NoError(t, err)

	require.NoError(t, c.DeletePlayer(42))

	_, ok := c.GetPlayerContext(42)
	assert.False(t, ok)
}

func TestClient_DataTypeMismatch(t *testing.T) {
	c := newFacadeTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	c.userData.Set("a string value")

	var n int
	err := c.Data(&n)
	require.Error(t, err)
	var lerr *Error
	require.True(t, errors.As(err, &lerr))
	assert.Equal(t, ErrPrecondition, lerr.Kind)
}
