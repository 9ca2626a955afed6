package lavalink

import "fmt"

// NodeBuilder configures one node at client construction time. It is
// consumed once by NewClient; there is no file format, no flags, no env
// vars to parse, matching the teacher's Config/NewConfig pattern
// generalized to one config per node.
type NodeBuilder struct {
	// Hostname is host:port of the node, e.g. "localhost:2333".
	Hostname string
	// SSL selects wss/https over ws/http.
	SSL bool
	// Password is sent as the Authorization header on every request.
	Password string
	// BotUserId identifies the bot to the node via the User-Id header.
	BotUserId UserId
	// SessionId, if non-empty, is used for REST calls before the node's
	// first `ready` frame supplies a fresh one.
	SessionId string
	// Events is this node's local handler table, consulted before the
	// client-global table on every dispatched frame.
	Events Events
}

// NewNodeBuilder returns a NodeBuilder with the teacher's historical
// defaults (localhost, Lavalink's documented default password) for fields
// the caller leaves unset.
func NewNodeBuilder() *NodeBuilder {
	return &NodeBuilder{
		Hostname: "localhost:2333",
		Password: "youshallnotpass",
	}
}

func (b *NodeBuilder) socketURL() string {
	if b.SSL {
		return fmt.Sprintf("wss://%s/v4/websocket", b.Hostname)
	}
	return fmt.Sprintf("ws://%s/v4/websocket", b.Hostname)
}

func (b *NodeBuilder) httpBase() string {
	if b.SSL {
		return fmt.Sprintf("https://%s", b.Hostname)
	}
	return fmt.Sprintf("http://%s", b.Hostname)
}

// ClientOption configures a Client at construction time.
type ClientOption func(*Client)

// WithDistributionStrategy sets the strategy used to pick a node for a
// guild that has none bound yet. Defaults to Sharded if never set.
func WithDistributionStrategy(s NodeDistributionStrategy) ClientOption {
	return func(c *Client) {
		c.strategy = s
	}
}

// WithEvents sets the client-global event handler table, consulted after
// a frame's per-node handlers.
func WithEvents(e Events) ClientOption {
	return func(c *Client) {
		c.events = e
	}
}

// WithUserData attaches an initial, type-erased value to the client's
// user-data slot, readable later via Client.Data.
func WithUserData(v any) ClientOption {
	return func(c *Client) {
		c.userData.Set(v)
	}
}

// WithLibraryName overrides the Client-Name header sent with every REST
// and WebSocket request. Defaults to "lavalink-go".
func WithLibraryName(name string) ClientOption {
	return func(c *Client) {
		c.libraryName = name
	}
}
