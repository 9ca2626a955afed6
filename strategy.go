package lavalink

import (
	"math"
	"sync/atomic"
	"time"
)

// NodeDistributionStrategy picks a node for a guild that has none bound
// yet. It runs once per guild; after selection, the guild is bound to
// the chosen node in the client's player registry and the strategy is
// not consulted again for that guild.
type NodeDistributionStrategy interface {
	selectNode(client *Client, guildId GuildId) (*Node, error)
}

// ShardedStrategy assigns guild_id mod N, giving a deterministic,
// stateless spread across nodes.
type ShardedStrategy struct{}

func NewShardedStrategy() ShardedStrategy { return ShardedStrategy{} }

func (ShardedStrategy) selectNode(client *Client, guildId GuildId) (*Node, error) {
	nodes := client.nodeList()
	if len(nodes) == 0 {
		return nil, newError(ErrPrecondition, "no nodes configured", nil)
	}
	return nodes[int(guildId)%len(nodes)], nil
}

// RoundRobinStrategy cycles through nodes with a shared atomic counter.
//
// The counter's wraparound is preserved literally from the reference
// implementation: it increments, and only resets to 1 (not 0) once it
// equals the node count, so the selection that triggers the reset lands
// on index 0 and the next one on index 1 — node 0 is visited once per
// full cycle while every other index is visited once per cycle as
// expected. This looks like an off-by-one but is kept as specified.
type RoundRobinStrategy struct {
	counter atomic.Uint64
}

func NewRoundRobinStrategy() *RoundRobinStrategy { return &RoundRobinStrategy{} }

func (s *RoundRobinStrategy) selectNode(client *Client, guildId GuildId) (*Node, error) {
	nodes := client.nodeList()
	n := uint64(len(nodes))
	if n == 0 {
		return nil, newError(ErrPrecondition, "no nodes configured", nil)
	}
	idx := s.counter.Add(1) - 1
	if idx == n {
		s.counter.Store(1)
		idx = 0
	}
	return nodes[idx], nil
}

// MainFallbackStrategy picks the first live node; if none are live, it
// waits 5 seconds and retries exactly once; if still none, it returns
// node 0 unconditionally, regardless of liveness.
type MainFallbackStrategy struct{}

func NewMainFallbackStrategy() MainFallbackStrategy { return MainFallbackStrategy{} }

func (MainFallbackStrategy) selectNode(client *Client, guildId GuildId) (*Node, error) {
	nodes := client.nodeList()
	if len(nodes) == 0 {
		return nil, newError(ErrPrecondition, "no nodes configured", nil)
	}
	if n := firstLive(nodes); n != nil {
		return n, nil
	}
	time.Sleep(5 * time.Second)
	if n := firstLive(nodes); n != nil {
		return n, nil
	}
	return nodes[0], nil
}

func firstLive(nodes []*Node) *Node {
	for _, n := range nodes {
		if n.Live() {
			return n
		}
	}
	return nil
}

// LowestLoadStrategy picks the node minimizing the absolute value of its
// last-reported system load. Nodes with no stats snapshot yet are
// skipped; if none have reported, node 0 is returned.
type LowestLoadStrategy struct{}

func NewLowestLoadStrategy() LowestLoadStrategy { return LowestLoadStrategy{} }

func (LowestLoadStrategy) selectNode(client *Client, guildId GuildId) (*Node, error) {
	nodes := client.nodeList()
	if len(nodes) == 0 {
		return nil, newError(ErrPrecondition, "no nodes configured", nil)
	}
	var best *Node
	bestLoad := math.Inf(1)
	for _, n := range nodes {
		cpu, _, ok := n.Load()
		if !ok {
			continue
		}
		load := math.Abs(cpu.SystemLoad)
		if load < bestLoad {
			bestLoad = load
			best = n
		}
	}
	if best == nil {
		return nodes[0], nil
	}
	return best, nil
}

// HighestFreeMemoryStrategy is named for the opposite of what it does:
// it picks the node with the *least* free memory, mirroring the
// reference implementation's min_by_key(|x| x.memory.free). Preserved
// literally; see the design notes on this naming/behavior mismatch.
type HighestFreeMemoryStrategy struct{}

func NewHighestFreeMemoryStrategy() HighestFreeMemoryStrategy { return HighestFreeMemoryStrategy{} }

func (HighestFreeMemoryStrategy) selectNode(client *Client, guildId GuildId) (*Node, error) {
	nodes := client.nodeList()
	if len(nodes) == 0 {
		return nil, newError(ErrPrecondition, "no nodes configured", nil)
	}
	var best *Node
	var bestFree uint64
	for _, n := range nodes {
		_, mem, ok := n.Load()
		if !ok {
			continue
		}
		if best == nil || mem.Free < bestFree {
			best = n
			bestFree = mem.Free
		}
	}
	if best == nil {
		return nodes[0], nil
	}
	return best, nil
}

// CustomStrategy delegates node selection entirely to a user-supplied
// function.
type CustomStrategy struct {
	Fn func(client *Client, guildId GuildId) (*Node, error)
}

func NewCustomStrategy(fn func(client *Client, guildId GuildId) (*Node, error)) CustomStrategy {
	return CustomStrategy{Fn: fn}
}

func (s CustomStrategy) selectNode(client *Client, guildId GuildId) (*Node, error) {
	return s.Fn(client, guildId)
}
