package lavalink

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// GuildId is an opaque, total-ordered identifier for a guild (server/
// namespace) on the chat platform. The client never interprets its bits;
// it only uses it as a map key and as the `guildId` path/body field sent
// to the node.
type GuildId uint64

// UserId is an opaque identifier for a user on the chat platform, used to
// recognise the bot's own voice-state updates.
type UserId uint64

// ChannelId is an opaque identifier for a voice channel on the chat
// platform.
type ChannelId uint64

func (g GuildId) String() string   { return strconv.FormatUint(uint64(g), 10) }
func (u UserId) String() string    { return strconv.FormatUint(uint64(u), 10) }
func (c ChannelId) String() string { return strconv.FormatUint(uint64(c), 10) }

// ParseGuildId parses a decimal string into a GuildId, the form both the
// REST API and the WebSocket frames use.
func ParseGuildId(s string) (GuildId, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("lavalink: invalid guild id %q: %w", s, err)
	}
	return GuildId(n), nil
}

// ParseUserId parses a decimal string into a UserId.
func ParseUserId(s string) (UserId, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("lavalink: invalid user id %q: %w", s, err)
	}
	return UserId(n), nil
}

// ParseChannelId parses a decimal string into a ChannelId.
func ParseChannelId(s string) (ChannelId, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("lavalink: invalid channel id %q: %w", s, err)
	}
	return ChannelId(n), nil
}

// MarshalJSON renders the id the way the node expects it on the wire: a
// decimal string, so 64-bit ids survive JSON's float64 number type intact.
func (g GuildId) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

// UnmarshalJSON accepts the node's guildId field, which arrives as either
// a JSON string or a bare number depending on the endpoint.
func (g *GuildId) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id, err := ParseGuildId(s)
		if err != nil {
			return err
		}
		*g = id
		return nil
	}
	var n uint64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("lavalink: invalid guildId %s: %w", data, err)
	}
	*g = GuildId(n)
	return nil
}
