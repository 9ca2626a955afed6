package lavalink

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// registryEntry is the player distribution registry's value type: the
// node a guild is bound to, and its PlayerContext if one was created.
// The node binding is sticky once set; only delete_player clears it.
type registryEntry struct {
	node    *Node
	context *PlayerContext
	inner   *PlayerContextInner
}

// Client is the public facade: node pool, player distribution registry,
// connection-info rendezvous, and the reconnection supervisor. All
// guild-bearing operations route through getNodeForGuild.
type Client struct {
	nodes       []*Node
	strategy    NodeDistributionStrategy
	events      Events
	libraryName string
	botUserId   UserId
	logger      *zap.Logger
	userData    *userDataSlot

	registryMu sync.RWMutex
	registry   map[GuildId]*registryEntry

	rendezvous *rendezvous

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewClient constructs a client from one or more node configurations.
// Construction with an empty node list is a fatal condition the library
// cannot recover from and panics, mirroring the reference
// implementation's behavior for that one case; every other failure mode
// is recoverable and returned as an error.
func NewClient(builders []*NodeBuilder, botUserId UserId, opts ...ClientOption) *Client {
	if len(builders) == 0 {
		panic("lavalink: NewClient requires at least one NodeBuilder")
	}

	c := &Client{
		strategy:    NewShardedStrategy(),
		libraryName: "lavalink-go",
		botUserId:   botUserId,
		logger:      zap.NewNop(),
		userData:    newUserDataSlot(nil),
		registry:    make(map[GuildId]*registryEntry),
		rendezvous:  newRendezvous(botUserId),
		stopCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.nodes = make([]*Node, len(builders))
	for i, b := range builders {
		node := &Node{id: i, builder: b, events: b.Events}
		node.transport = &transport{
			httpClient:  http.DefaultClient,
			base:        b.httpBase(),
			password:    b.Password,
			botUserId:   botUserId,
			libraryName: c.libraryName,
			sessionId:   node.SessionId,
		}
		if b.SessionId != "" {
			node.setSessionId(b.SessionId)
		}
		c.nodes[i] = node
	}

	go c.rendezvous.run()

	for _, n := range c.nodes {
		if err := n.connect(c); err != nil {
			c.logger.Warn("initial node connect failed, reconnection supervisor will retry", zap.Int("node", n.id), zap.Error(err))
		}
	}

	go c.reconnectionSupervisor()

	return c
}

// Close stops the reconnection supervisor and nothing else. Node read
// loops keep running until their WebSocket closes, player actors until
// they process a Close message (DeletePlayer sends one), and the
// rendezvous goroutine is not stopped.
func (c *Client) Close() {
	c.stopOnce.Do(func() { close(c.stopCh) })
}

func (c *Client) nodeList() []*Node {
	return c.nodes
}

// Data reads the client's user-data slot into out.
func (c *Client) Data(out any) error {
	return c.userData.read(out)
}

func (c *Client) reconnectionSupervisor() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			var g errgroup.Group
			for _, n := range c.nodes {
				n := n
				if n.Live() {
					continue
				}
				g.Go(func() error {
					if err := n.connect(c); err != nil {
						c.logger.Warn("node reconnect failed", zap.Int("node", n.id), zap.Error(err))
					}
					return nil
				})
			}
			_ = g.Wait()
		}
	}
}

// getNodeForGuild consults the registry, then the distribution strategy
// on miss. The binding is sticky: once set, it is never revisited by the
// strategy until delete_player clears it.
func (c *Client) getNodeForGuild(guildId GuildId) (*Node, error) {
	c.registryMu.RLock()
	if e, ok := c.registry[guildId]; ok {
		node := e.node
		c.registryMu.RUnlock()
		return node, nil
	}
	c.registryMu.RUnlock()

	node, err := c.strategy.selectNode(c, guildId)
	if err != nil {
		return nil, err
	}

	c.registryMu.Lock()
	defer c.registryMu.Unlock()
	if e, ok := c.registry[guildId]; ok {
		return e.node, nil
	}
	c.registry[guildId] = &registryEntry{node: node}
	return node, nil
}

// CreatePlayer creates or updates the remote player for guildId with the
// given voice credentials, without spawning a local actor.
func (c *Client) CreatePlayer(guildId GuildId, info ConnectionInfo) (Player, error) {
	info.Fix()
	return c.UpdatePlayer(guildId, UpdatePlayerRequest{Voice: &info}, false)
}

// CreatePlayerContext creates or updates the remote player and ensures a
// local actor exists for guildId. It is idempotent: if a context already
// exists, it is returned unchanged and no REST call is issued.
func (c *Client) CreatePlayerContext(guildId GuildId, info ConnectionInfo, userData any) (*PlayerContext, error) {
	if ctx, ok := c.GetPlayerContext(guildId); ok {
		return ctx, nil
	}

	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return nil, err
	}

	info.Fix()
	player, err := node.transport.updatePlayer(node.SessionId(), guildId, UpdatePlayerRequest{Voice: &info}, false)
	if err != nil {
		return nil, err
	}

	c.registryMu.Lock()
	defer c.registryMu.Unlock()
	if e, ok := c.registry[guildId]; ok && e.context != nil {
		return e.context, nil
	}

	inner := newPlayerContextInner(c, guildId, player)
	ctx := inner.handle()
	if userData != nil {
		ctx.data.Set(userData)
	}
	go inner.run()

	c.registry[guildId] = &registryEntry{node: node, context: ctx, inner: inner}
	return ctx, nil
}

// GetPlayerContext returns the actor handle for guildId, if one exists.
func (c *Client) GetPlayerContext(guildId GuildId) (*PlayerContext, bool) {
	c.registryMu.RLock()
	defer c.registryMu.RUnlock()
	e, ok := c.registry[guildId]
	if !ok || e.context == nil {
		return nil, false
	}
	return e.context, true
}

func (c *Client) updatePlayerRaw(guildId GuildId, body UpdatePlayerRequest, noReplace bool) (Player, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return Player{}, err
	}
	return node.transport.updatePlayer(node.SessionId(), guildId, body, noReplace)
}

// UpdatePlayer issues a REST update for guildId and, if a context
// exists, pushes the result into the actor's cached snapshot.
func (c *Client) UpdatePlayer(guildId GuildId, body UpdatePlayerRequest, noReplace bool) (Player, error) {
	player, err := c.updatePlayerRaw(guildId, body, noReplace)
	if err != nil {
		return Player{}, err
	}
	if ctx, ok := c.GetPlayerContext(guildId); ok {
		ctx.UpdatePlayer(player)
	}
	return player, nil
}

// DeletePlayer closes the guild's actor (if any), issues the REST
// destroy call, clears the registry entry, and clears any pending
// rendezvous state for the guild.
func (c *Client) DeletePlayer(guildId GuildId) error {
	c.registryMu.Lock()
	e, ok := c.registry[guildId]
	delete(c.registry, guildId)
	c.registryMu.Unlock()

	c.rendezvous.mailbox <- rendezvousMsg{stateUpdate: &stateUpdateMsg{guildId: guildId, channelId: nil, userId: c.botUserId}}

	if !ok {
		return nil
	}
	if e.context != nil {
		e.context.Close()
	}
	return e.node.transport.deletePlayer(e.node.SessionId(), guildId)
}

// DeleteAllPlayerContexts deletes every currently registered player.
func (c *Client) DeleteAllPlayerContexts() {
	c.registryMu.RLock()
	guildIds := make([]GuildId, 0, len(c.registry))
	for g := range c.registry {
		guildIds = append(guildIds, g)
	}
	c.registryMu.RUnlock()

	for _, g := range guildIds {
		if err := c.DeletePlayer(g); err != nil {
			c.logger.Warn("deleting player during bulk teardown", zap.Uint64("guild", uint64(g)), zap.Error(err))
		}
	}
}

// LoadTracks resolves identifier via guildId's node, mapping an
// error-typed load result into a failed call.
func (c *Client) LoadTracks(guildId GuildId, identifier string) (Track, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return Track{}, err
	}
	track, err := node.transport.loadTracks(identifier)
	if err != nil {
		return Track{}, err
	}
	if track.LoadType == LoadTypeError && track.LoadError != nil {
		return Track{}, newError(ErrProtocol, track.LoadError.Message, nil)
	}
	return track, nil
}

// DecodeTrack decodes one encoded track via guildId's node.
func (c *Client) DecodeTrack(guildId GuildId, encoded string) (TrackData, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return TrackData{}, err
	}
	return node.transport.decodeTrack(encoded)
}

// DecodeTracks decodes many encoded tracks via guildId's node.
func (c *Client) DecodeTracks(guildId GuildId, encoded []string) ([]TrackData, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return nil, err
	}
	return node.transport.decodeTracks(encoded)
}

// RequestVersion returns the node's plain-text version string.
func (c *Client) RequestVersion(guildId GuildId) (string, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return "", err
	}
	return node.transport.version()
}

// RequestInfo returns the node's server info.
func (c *Client) RequestInfo(guildId GuildId) (Info, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return Info{}, err
	}
	return node.transport.info()
}

// RequestStats returns the node's statistics.
func (c *Client) RequestStats(guildId GuildId) (Stats, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return Stats{}, err
	}
	return node.transport.stats()
}

// RequestPlayer fetches the remote player snapshot for guildId.
func (c *Client) RequestPlayer(guildId GuildId) (Player, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return Player{}, err
	}
	return node.transport.getPlayer(node.SessionId(), guildId)
}

// RequestAllPlayers lists every player on guildId's node's session.
func (c *Client) RequestAllPlayers(guildId GuildId) (PlayersResponse, error) {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return nil, err
	}
	return node.transport.getPlayers(node.SessionId())
}

// SetResumingState toggles session resumption on guildId's node.
func (c *Client) SetResumingState(guildId GuildId, resuming bool, timeout time.Duration) error {
	node, err := c.getNodeForGuild(guildId)
	if err != nil {
		return err
	}
	return node.transport.setResumingState(node.SessionId(), ResumingStateRequest{
		Resuming: resuming,
		Timeout:  int(timeout / time.Second),
	})
}

// GetConnectionInfo blocks until both voice gateway events for guildId
// have arrived, or returns a Timeout error after timeout elapses.
func (c *Client) GetConnectionInfo(guildId GuildId, timeout time.Duration) (ConnectionInfo, error) {
	reply := make(chan connectionInfoResult, 1)
	c.rendezvous.mailbox <- rendezvousMsg{getInfo: &getConnectionInfoMsg{guildId: guildId, timeout: timeout, reply: reply}}
	result := <-reply
	return result.info, result.err
}

// HandleVoiceServerUpdate feeds the chat platform's VOICE_SERVER_UPDATE
// into the rendezvous. It never blocks the caller.
func (c *Client) HandleVoiceServerUpdate(guildId GuildId, token, endpoint string) {
	go func() {
		c.rendezvous.mailbox <- rendezvousMsg{serverUpdate: &serverUpdateMsg{guildId: guildId, token: token, endpoint: endpoint}}
	}()
}

// HandleVoiceStateUpdate feeds the chat platform's VOICE_STATE_UPDATE
// into the rendezvous, ignoring updates for any user but the bot. It
// never blocks the caller.
func (c *Client) HandleVoiceStateUpdate(guildId GuildId, channelId *ChannelId, userId UserId, sessionId string) {
	go func() {
		c.rendezvous.mailbox <- rendezvousMsg{stateUpdate: &stateUpdateMsg{guildId: guildId, channelId: channelId, userId: userId, sessionId: sessionId}}
	}()
}

func (c *Client) onPlayerUpdate(e PlayerUpdate) {
	if ctx, ok := c.GetPlayerContext(e.GuildId); ok {
		ctx.UpdatePlayerState(e.State)
	}
}

func (c *Client) onTrackEnd(e TrackEnd) {
	ctx, ok := c.GetPlayerContext(e.GuildId)
	if !ok {
		return
	}
	ctx.TrackFinished(e.Reason.ShouldContinue())
}

// escapeIdentifier is a small convenience for callers building
// /loadtracks identifiers from user-supplied search text.
func escapeIdentifier(s string) string {
	return url.QueryEscape(s)
}
