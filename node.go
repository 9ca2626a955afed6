package lavalink

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Node owns one long-lived WebSocket connection to a single audio node,
// plus the HTTP transport for its REST API. Exactly one WebSocket read
// loop runs per node at any time; live mirrors that loop's state.
type Node struct {
	id      int
	builder *NodeBuilder
	events  Events

	transport *transport

	live      atomic.Bool
	sessionId atomic.Pointer[string]
	load      atomic.Pointer[nodeLoad]
}

type nodeLoad struct {
	cpu    Cpu
	memory Memory
}

// Id is this node's stable index into the client's node list.
func (n *Node) Id() int { return n.id }

// Live reports whether the node's WebSocket read loop is currently
// running.
func (n *Node) Live() bool { return n.live.Load() }

// SessionId returns the node's current session id, empty until its first
// `ready` frame arrives (or the builder supplied one up front).
func (n *Node) SessionId() string {
	if p := n.sessionId.Load(); p != nil {
		return *p
	}
	return ""
}

func (n *Node) setSessionId(id string) {
	n.sessionId.Store(&id)
}

// Load returns the node's last-reported CPU and memory snapshot, used by
// the LowestLoad and HighestFreeMemory distribution strategies.
func (n *Node) Load() (Cpu, Memory, bool) {
	l := n.load.Load()
	if l == nil {
		return Cpu{}, Memory{}, false
	}
	return l.cpu, l.memory, true
}

func (n *Node) setLoad(cpu Cpu, memory Memory) {
	n.load.Store(&nodeLoad{cpu: cpu, memory: memory})
}

// connect dials the node's WebSocket and, on success, spawns its read
// loop. Session id is preserved across reconnects so the node can resume
// server-side; the caller (Client construction, or the reconnection
// supervisor) decides when to retry on failure.
func (n *Node) connect(client *Client) error {
	headers := http.Header{}
	headers.Set("Authorization", n.builder.Password)
	headers.Set("User-Id", n.builder.BotUserId.String())
	headers.Set("Client-Name", client.libraryName)
	if sid := n.SessionId(); sid != "" {
		headers.Set("Session-Id", sid)
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 45 * time.Second,
	}
	conn, _, err := dialer.Dial(n.builder.socketURL(), headers)
	if err != nil {
		return newError(ErrTransport, "dialing node websocket", err)
	}

	n.live.Store(true)
	go n.readLoop(client, conn)
	return nil
}

func (n *Node) readLoop(client *Client, conn *websocket.Conn) {
	defer func() {
		n.live.Store(false)
		conn.Close()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			client.logger.Info("node websocket closed", zap.Int("node", n.id), zap.Error(err))
			return
		}
		go dispatchFrame(client, n, data)
	}
}
