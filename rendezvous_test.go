package lavalink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRendezvous(t *testing.T, botId UserId) *rendezvous {
	r := newRendezvous(botId)
	go r.run()
	t.Cleanup(func() { close(r.mailbox) })
	return r
}

func TestRendezvous_HappyPath(t *testing.T) {
	r := startRendezvous(t, UserId(1))

	r.mailbox <- rendezvousMsg{serverUpdate: &serverUpdateMsg{guildId: 42, token: "tok", endpoint: "wss://gw.example"}}
	r.mailbox <- rendezvousMsg{stateUpdate: &stateUpdateMsg{guildId: 42, channelId: ptr(ChannelId(7)), userId: 1, sessionId: "sess"}}

	reply := make(chan connectionInfoResult, 1)
	r.mailbox <- rendezvousMsg{getInfo: &getConnectionInfoMsg{guildId: 42, timeout: 5 * time.Second, reply: reply}}

	result := <-reply
	require.NoError(t, result.err)
	assert.Equal(t, "gw.example", result.info.Endpoint)
	assert.Equal(t, "tok", result.info.Token)
	assert.Equal(t, "sess", result.info.SessionId)
}

func TestRendezvous_Timeout(t *testing.T) {
	r := startRendezvous(t, UserId(1))

	r.mailbox <- rendezvousMsg{serverUpdate: &serverUpdateMsg{guildId: 42, token: "tok", endpoint: "gw"}}

	reply := make(chan connectionInfoResult, 1)
	start := time.Now()
	r.mailbox <- rendezvousMsg{getInfo: &getConnectionInfoMsg{guildId: 42, timeout: 200 * time.Millisecond, reply: reply}}

	result := <-reply
	elapsed := time.Since(start)
	assert.True(t, IsTimeout(result.err))
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
}

func TestRendezvous_LeaveClearsState(t *testing.T) {
	r := startRendezvous(t, UserId(1))

	r.mailbox <- rendezvousMsg{serverUpdate: &serverUpdateMsg{guildId: 42, token: "tok", endpoint: "gw"}}
	r.mailbox <- rendezvousMsg{stateUpdate: &stateUpdateMsg{guildId: 42, channelId: ptr(ChannelId(7)), userId: 1, sessionId: "sess"}}

	reply1 := make(chan connectionInfoResult, 1)
	r.mailbox <- rendezvousMsg{getInfo: &getConnectionInfoMsg{guildId: 42, timeout: time.Second, reply: reply1}}
	require.NoError(t, (<-reply1).err)

	r.mailbox <- rendezvousMsg{stateUpdate: &stateUpdateMsg{guildId: 42, channelId: nil, userId: 1, sessionId: "sess2"}}

	reply2 := make(chan connectionInfoResult, 1)
	r.mailbox <- rendezvousMsg{getInfo: &getConnectionInfoMsg{guildId: 42, timeout: 150 * time.Millisecond, reply: reply2}}
	assert.True(t, IsTimeout((<-reply2).err))
}

func TestRendezvous_PokeResetsTimeoutDeadline(t *testing.T) {
	r := startRendezvous(t, UserId(1))

	r.mailbox <- rendezvousMsg{serverUpdate: &serverUpdateMsg{guildId: 42, token: "tok", endpoint: "gw"}}

	reply := make(chan connectionInfoResult, 1)
	r.mailbox <- rendezvousMsg{getInfo: &getConnectionInfoMsg{guildId: 42, timeout: 150 * time.Millisecond, reply: reply}}

	// A second ServerUpdate arrives just before the original deadline
	// would fire (e.g. a re-sent VOICE_SERVER_UPDATE mid voice-region
	// migration). It should push the deadline back rather than letting
	// the original timer still expire the wait.
	time.Sleep(100 * time.Millisecond)
	r.mailbox <- rendezvousMsg{serverUpdate: &serverUpdateMsg{guildId: 42, token: "tok2", endpoint: "gw2"}}

	select {
	case <-reply:
		t.Fatal("wait timed out despite a poke extending its deadline")
	case <-time.After(120 * time.Millisecond):
	}

	// Completing the triple after the original deadline (but within the
	// re-armed one) still succeeds.
	r.mailbox <- rendezvousMsg{stateUpdate: &stateUpdateMsg{guildId: 42, channelId: ptr(ChannelId(7)), userId: 1, sessionId: "sess"}}

	result := <-reply
	require.NoError(t, result.err)
	assert.Equal(t, "gw2", result.info.Endpoint)
	assert.Equal(t, "tok2", result.info.Token)
}

func TestRendezvous_IgnoresOtherUsersStateUpdate(t *testing.T) {
	r := startRendezvous(t, UserId(1))

	r.mailbox <- rendezvousMsg{serverUpdate: &serverUpdateMsg{guildId: 42, token: "tok", endpoint: "gw"}}
	r.mailbox <- rendezvousMsg{stateUpdate: &stateUpdateMsg{guildId: 42, channelId: ptr(ChannelId(7)), userId: 999, sessionId: "sess"}}

	reply := make(chan connectionInfoResult, 1)
	r.mailbox <- rendezvousMsg{getInfo: &getConnectionInfoMsg{guildId: 42, timeout: 150 * time.Millisecond, reply: reply}}
	assert.True(t, IsTimeout((<-reply).err))
}

func ptr[T any](v T) *T { return &v }
