package lavalink

import "go.uber.org/zap"

// QueueOpKind discriminates the mutation a QueueOp message performs.
type QueueOpKind int

const (
	QueuePushBack QueueOpKind = iota
	QueuePushFront
	QueueInsert
	QueueRemove
	QueueClear
	QueueReplace
	QueueAppend
)

// QueueOp is the payload of a queue-mutation message: Tracks carries the
// track(s) for PushBack/PushFront/Insert/Replace/Append, Index carries
// the position for Insert/Remove.
type QueueOp struct {
	Kind   QueueOpKind
	Tracks []TrackInQueue
	Index  int
}

// playerMessage is the mailbox payload type for a PlayerContextInner
// actor. Every message is processed strictly in arrival order. The
// mailbox is a channel buffered to 64 messages; it is not unbounded, and
// a sender blocks while the buffer is full.
type playerMessage struct {
	updatePlayer      *Player
	updatePlayerTrack *trackUpdateMsg
	updatePlayerState *State
	queueOp           *QueueOp
	getQueue          chan []TrackInQueue
	getPlayer         chan Player
	trackFinished     *bool
	startTrack        bool
	close             bool
}

type trackUpdateMsg struct {
	track *TrackData
}

// PlayerContext is a cheap-to-copy handle to a per-guild actor. Copying
// it only copies the mailbox sender and client reference; every copy
// reaches the same actor and the same queue.
type PlayerContext struct {
	GuildId GuildId
	client  *Client
	mailbox chan playerMessage
	data    *userDataSlot
}

// Data copies the value stored in this player's user-data slot into out,
// which must be a non-nil pointer. It returns ErrInvalidDataType if the
// slot holds a value of a different type or was never set.
func (p *PlayerContext) Data(out any) error {
	return p.data.read(out)
}

// UpdatePlayer replaces the actor's cached player snapshot wholesale,
// called by the client after a successful update_player REST call.
func (p *PlayerContext) UpdatePlayer(player Player) {
	p.mailbox <- playerMessage{updatePlayer: &player}
}

// UpdatePlayerTrack updates just the cached snapshot's track field.
func (p *PlayerContext) UpdatePlayerTrack(track *TrackData) {
	p.mailbox <- playerMessage{updatePlayerTrack: &trackUpdateMsg{track: track}}
}

// UpdatePlayerState updates just the cached snapshot's state field, the
// path playerUpdate frames use to keep position current without a REST
// round-trip.
func (p *PlayerContext) UpdatePlayerState(state State) {
	p.mailbox <- playerMessage{updatePlayerState: &state}
}

// Queue applies a queue mutation.
func (p *PlayerContext) Queue(op QueueOp) {
	p.mailbox <- playerMessage{queueOp: &op}
}

// GetQueue returns a snapshot of the current queue contents.
func (p *PlayerContext) GetQueue() []TrackInQueue {
	reply := make(chan []TrackInQueue, 1)
	p.mailbox <- playerMessage{getQueue: reply}
	return <-reply
}

// GetPlayer returns the actor's cached player snapshot.
func (p *PlayerContext) GetPlayer() Player {
	reply := make(chan Player, 1)
	p.mailbox <- playerMessage{getPlayer: reply}
	return <-reply
}

// TrackFinished notifies the actor that the node reported a track end.
// If shouldContinue, the actor advances the queue by sending itself
// StartTrack.
func (p *PlayerContext) TrackFinished(shouldContinue bool) {
	p.mailbox <- playerMessage{trackFinished: &shouldContinue}
}

// Close shuts the actor down. Queued messages already in the mailbox are
// drained before it exits; no new messages should be sent afterward.
func (p *PlayerContext) Close() {
	p.mailbox <- playerMessage{close: true}
}

// PlayerContextInner is the actor's private state, exclusive to its
// single goroutine. External code never touches it directly, only
// through PlayerContext's mailbox sends.
type PlayerContextInner struct {
	guildId       GuildId
	client        *Client
	mailbox       chan playerMessage
	queue         *Queue
	player        Player
	shouldContinue bool
}

func newPlayerContextInner(client *Client, guildId GuildId, initial Player) *PlayerContextInner {
	return &PlayerContextInner{
		guildId: guildId,
		client:  client,
		mailbox: make(chan playerMessage, 64),
		queue:   NewQueue(),
		player:  initial,
	}
}

func (inner *PlayerContextInner) handle() *PlayerContext {
	return &PlayerContext{
		GuildId: inner.guildId,
		client:  inner.client,
		mailbox: inner.mailbox,
		data:    newUserDataSlot(nil),
	}
}

// run is the actor loop. It exits once the mailbox is closed or a close
// message has been processed and drained.
func (inner *PlayerContextInner) run() {
	for msg := range inner.mailbox {
		inner.handleMessage(msg)
		if msg.close {
			return
		}
	}
}

func (inner *PlayerContextInner) handleMessage(msg playerMessage) {
	switch {
	case msg.updatePlayer != nil:
		inner.player = *msg.updatePlayer
	case msg.updatePlayerTrack != nil:
		inner.player.Track = msg.updatePlayerTrack.track
	case msg.updatePlayerState != nil:
		inner.player.State = *msg.updatePlayerState
	case msg.queueOp != nil:
		inner.applyQueueOp(*msg.queueOp)
	case msg.getQueue != nil:
		msg.getQueue <- inner.queue.Slice()
	case msg.getPlayer != nil:
		msg.getPlayer <- inner.player
	case msg.trackFinished != nil:
		inner.shouldContinue = *msg.trackFinished
		if inner.shouldContinue {
			inner.mailbox <- playerMessage{startTrack: true}
		}
	case msg.startTrack:
		inner.startTrack()
	case msg.close:
	}
}

func (inner *PlayerContextInner) applyQueueOp(op QueueOp) {
	switch op.Kind {
	case QueuePushBack:
		for _, t := range op.Tracks {
			inner.queue.PushBack(t)
		}
	case QueuePushFront:
		for i := len(op.Tracks) - 1; i >= 0; i-- {
			inner.queue.PushFront(op.Tracks[i])
		}
	case QueueInsert:
		if len(op.Tracks) > 0 {
			inner.queue.Insert(op.Index, op.Tracks[0])
		}
	case QueueRemove:
		inner.queue.Remove(op.Index)
	case QueueClear:
		inner.queue.Clear()
	case QueueReplace:
		inner.queue.Replace(op.Tracks)
	case QueueAppend:
		inner.queue.Append(op.Tracks)
	}
}

// startTrack pops the front of the queue and issues an UpdatePlayer REST
// call with its encoded track and playback parameters, with no_replace
// false so it takes over the node's player immediately.
func (inner *PlayerContextInner) startTrack() {
	front, ok := inner.queue.PopFront()
	if !ok {
		return
	}
	encoded := front.Track.Encoded
	body := UpdatePlayerRequest{
		EncodedTrack: &encoded,
		Position:     front.StartTime,
		EndTime:      front.EndTime,
		Volume:       front.Volume,
		Filters:      front.Filters,
	}
	player, err := inner.client.updatePlayerRaw(inner.guildId, body, false)
	if err != nil {
		inner.client.logger.Warn("starting queued track", zap.Uint64("guild", uint64(inner.guildId)), zap.Error(err))
		return
	}
	inner.player = player
}
