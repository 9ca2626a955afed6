package lavalink

import "encoding/json"

// Ready is sent once per WebSocket connection, carrying the session id
// the node assigned. dispatchFrame swaps the node's session id in before
// this event reaches any handler.
type Ready struct {
	Resumed   bool   `json:"resumed"`
	SessionId string `json:"sessionId"`
}

// Cpu is a CPU load snapshot from a stats frame.
type Cpu struct {
	Cores        int     `json:"cores"`
	SystemLoad   float64 `json:"systemLoad"`
	LavalinkLoad float64 `json:"lavalinkLoad"`
}

// Memory is a memory usage snapshot from a stats frame.
type Memory struct {
	Free       uint64 `json:"free"`
	Used       uint64 `json:"used"`
	Allocated  uint64 `json:"allocated"`
	Reservable uint64 `json:"reservable"`
}

// FrameStats is only ever present on the stats WebSocket frame; the
// equivalent REST response omits it entirely.
type FrameStats struct {
	Sent    int `json:"sent"`
	Nulled  int `json:"nulled"`
	Deficit int `json:"deficit"`
}

// Stats is the node's periodic statistics frame.
type Stats struct {
	Players        int         `json:"players"`
	PlayingPlayers int         `json:"playingPlayers"`
	Uptime         uint64      `json:"uptime"`
	Memory         Memory      `json:"memory"`
	Cpu            Cpu         `json:"cpu"`
	FrameStats     *FrameStats `json:"frameStats,omitempty"`
}

// PlayerUpdate is the periodic position/connectivity update for one
// guild's player.
type PlayerUpdate struct {
	GuildId GuildId `json:"guildId"`
	State   State   `json:"state"`
}

// TrackStart fires when the node begins playing a track.
type TrackStart struct {
	GuildId GuildId   `json:"guildId"`
	Track   TrackData `json:"track"`
}

// TrackEndReason discriminates why a track stopped playing.
type TrackEndReason string

const (
	TrackEndFinished   TrackEndReason = "finished"
	TrackEndLoadFailed TrackEndReason = "loadFailed"
	TrackEndStopped    TrackEndReason = "stopped"
	TrackEndReplaced   TrackEndReason = "replaced"
	TrackEndCleanup    TrackEndReason = "cleanup"
)

// ShouldContinue reports whether the queue should advance to the next
// track after this end reason. Only a natural end or a transient load
// failure advances; an explicit replace or a terminal stop/cleanup does
// not.
func (r TrackEndReason) ShouldContinue() bool {
	return r == TrackEndFinished || r == TrackEndLoadFailed
}

// TrackEnd fires when a track stops playing, for any reason.
type TrackEnd struct {
	GuildId GuildId        `json:"guildId"`
	Track   TrackData      `json:"track"`
	Reason  TrackEndReason `json:"reason"`
}

// TrackException fires when the node fails to play a track mid-stream.
// It is delivered to handlers but does not by itself alter actor state.
type TrackException struct {
	GuildId GuildId    `json:"guildId"`
	Track   TrackData  `json:"track"`
	Error   TrackError `json:"exception"`
}

// TrackStuck fires when no new audio frames have been received for
// ThresholdMs milliseconds.
type TrackStuck struct {
	GuildId     GuildId   `json:"guildId"`
	Track       TrackData `json:"track"`
	ThresholdMs int64     `json:"thresholdMs"`
}

// WebSocketClosed fires when the chat platform's voice WebSocket closes,
// forwarded by the node for diagnostic purposes.
type WebSocketClosed struct {
	GuildId  GuildId `json:"guildId"`
	Code     int     `json:"code"`
	Reason   string  `json:"reason"`
	ByRemote bool    `json:"byRemote"`
}

// Events is a table of per-event-kind function pointers. Two tables are
// consulted per frame, in order: a node's own Events, then the client's
// global Events. Any field left nil is simply skipped. Raw, if set, fires
// on every frame after typed dispatch, receiving the frame bytes
// unparsed.
type Events struct {
	Ready               func(client *Client, sessionId string, e Ready)
	Stats               func(client *Client, sessionId string, e Stats)
	PlayerUpdate        func(client *Client, sessionId string, e PlayerUpdate)
	TrackStart          func(client *Client, sessionId string, e TrackStart)
	TrackEnd            func(client *Client, sessionId string, e TrackEnd)
	TrackException      func(client *Client, sessionId string, e TrackException)
	TrackStuck          func(client *Client, sessionId string, e TrackStuck)
	WebSocketClosed     func(client *Client, sessionId string, e WebSocketClosed)
	Raw                 func(client *Client, sessionId string, data json.RawMessage)
}
