package lavalink

import "time"

// rendezvousMsg is the mailbox payload for the connection-info
// rendezvous task. Exactly one of its fields is set per message.
type rendezvousMsg struct {
	serverUpdate *serverUpdateMsg
	stateUpdate  *stateUpdateMsg
	getInfo      *getConnectionInfoMsg
	timeoutFired *timeoutMsg
}

type serverUpdateMsg struct {
	guildId  GuildId
	token    string
	endpoint string
}

type stateUpdateMsg struct {
	guildId   GuildId
	channelId *ChannelId
	userId    UserId
	sessionId string
}

type getConnectionInfoMsg struct {
	guildId GuildId
	timeout time.Duration
	reply   chan connectionInfoResult
}

// timeoutMsg is posted by a waiter's timer when it fires. generation
// pins it to the particular arming of that timer, so a fire that raced
// against a reArm (the timer's function runs just as onServerUpdate /
// onStateUpdate schedules a fresh deadline) is recognised as stale and
// ignored rather than timing out a wait that was just extended.
type timeoutMsg struct {
	guildId    GuildId
	waitId     uint64
	generation uint64
}

type connectionInfoResult struct {
	info ConnectionInfo
	err  error
}

// pendingWait is one in-flight GetConnectionInfo call for a guild. Its
// timer is re-armed (stopped and replaced) on every poke for that guild
// while the triple remains incomplete, so the caller's timeout measures
// time since the *last* event, not time since the call began, matching
// `original_source`'s `loop { tokio::time::timeout(timeout, rx.recv()) }`.
type pendingWait struct {
	id         uint64
	generation uint64
	timeout    time.Duration
	timer      *time.Timer
	reply      chan connectionInfoResult
}

// guildVoiceState is the per-guild triple the rendezvous joins, plus any
// GetConnectionInfo calls still waiting on it.
type guildVoiceState struct {
	token     *string
	endpoint  *string
	sessionId *string
	waiters   []*pendingWait
}

func (g *guildVoiceState) complete() bool {
	return g.token != nil && g.endpoint != nil && g.sessionId != nil
}

func (g *guildVoiceState) connectionInfo() ConnectionInfo {
	info := ConnectionInfo{Token: *g.token, Endpoint: *g.endpoint, SessionId: *g.sessionId}
	info.Fix()
	return info
}

// rendezvous is a background task, owned by the Client, that joins
// independently-arriving voice-server and voice-state updates per guild
// into a ConnectionInfo. It runs as a single goroutine processing its
// mailbox in order, so concurrent GetConnectionInfo calls for the same
// guild are served in arrival order without any separate locking.
type rendezvous struct {
	mailbox chan rendezvousMsg
	botId   UserId
	states  map[GuildId]*guildVoiceState
	nextId  uint64
}

func newRendezvous(botId UserId) *rendezvous {
	return &rendezvous{
		mailbox: make(chan rendezvousMsg, 256),
		botId:   botId,
		states:  make(map[GuildId]*guildVoiceState),
	}
}

func (r *rendezvous) run() {
	for msg := range r.mailbox {
		switch {
		case msg.serverUpdate != nil:
			r.onServerUpdate(*msg.serverUpdate)
		case msg.stateUpdate != nil:
			r.onStateUpdate(*msg.stateUpdate)
		case msg.getInfo != nil:
			r.onGetConnectionInfo(*msg.getInfo)
		case msg.timeoutFired != nil:
			r.onTimeout(*msg.timeoutFired)
		}
	}
}

func (r *rendezvous) stateFor(guildId GuildId) *guildVoiceState {
	s, ok := r.states[guildId]
	if !ok {
		s = &guildVoiceState{}
		r.states[guildId] = s
	}
	return s
}

func (r *rendezvous) onServerUpdate(m serverUpdateMsg) {
	s := r.stateFor(m.guildId)
	token, endpoint := m.token, m.endpoint
	s.token = &token
	s.endpoint = &endpoint
	r.poke(m.guildId, s)
}

func (r *rendezvous) onStateUpdate(m stateUpdateMsg) {
	if m.userId != r.botId {
		return
	}
	s := r.stateFor(m.guildId)
	if m.channelId == nil {
		s.token, s.endpoint, s.sessionId = nil, nil, nil
		return
	}
	sessionId := m.sessionId
	s.sessionId = &sessionId
	r.poke(m.guildId, s)
}

// poke runs on every ServerUpdate and every (non-leave) StateUpdate for
// a guild. If the triple is now complete, every waiter is answered and
// its timer stopped. Otherwise every still-pending waiter's deadline is
// reset to its original timeout counted from now, since this event is
// evidence the rendezvous is still making progress.
func (r *rendezvous) poke(guildId GuildId, s *guildVoiceState) {
	if len(s.waiters) == 0 {
		return
	}
	if s.complete() {
		info := s.connectionInfo()
		for _, w := range s.waiters {
			w.timer.Stop()
			w.reply <- connectionInfoResult{info: info}
		}
		s.waiters = nil
		return
	}
	for _, w := range s.waiters {
		r.reArm(guildId, w)
	}
}

// reArm stops w's current timer and schedules a fresh one for w.timeout
// from now, bumping its generation so a stale fire from the timer it
// just replaced is recognised and discarded in onTimeout.
func (r *rendezvous) reArm(guildId GuildId, w *pendingWait) {
	w.timer.Stop()
	w.generation++
	id, gen := w.id, w.generation
	w.timer = time.AfterFunc(w.timeout, func() {
		r.mailbox <- rendezvousMsg{timeoutFired: &timeoutMsg{guildId: guildId, waitId: id, generation: gen}}
	})
}

func (r *rendezvous) onGetConnectionInfo(m getConnectionInfoMsg) {
	s := r.stateFor(m.guildId)
	if s.complete() {
		m.reply <- connectionInfoResult{info: s.connectionInfo()}
		return
	}
	r.nextId++
	w := &pendingWait{id: r.nextId, timeout: m.timeout, reply: m.reply}
	waitId, guildId := w.id, m.guildId
	w.timer = time.AfterFunc(m.timeout, func() {
		r.mailbox <- rendezvousMsg{timeoutFired: &timeoutMsg{guildId: guildId, waitId: waitId, generation: 0}}
	})
	s.waiters = append(s.waiters, w)
}

func (r *rendezvous) onTimeout(m timeoutMsg) {
	s := r.stateFor(m.guildId)
	idx := -1
	for i, w := range s.waiters {
		if w.id == m.waitId && w.generation == m.generation {
			idx = i
			break
		}
	}
	if idx == -1 {
		// Already satisfied by poke(), or this fire raced a reArm that
		// superseded it with a later generation; either way stale.
		return
	}
	w := s.waiters[idx]
	s.waiters = append(s.waiters[:idx], s.waiters[idx+1:]...)
	if s.complete() {
		w.reply <- connectionInfoResult{info: s.connectionInfo()}
		return
	}
	w.reply <- connectionInfoResult{err: newError(ErrTimeout, "connection info rendezvous timed out", nil)}
}
