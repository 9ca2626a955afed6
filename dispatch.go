package lavalink

import (
	"encoding/json"

	"go.uber.org/zap"
)

// frameEnvelope is the outer shape of every WebSocket text frame: `op`
// discriminates the frame kind, and for `op == "event"` an additional
// `type` discriminates the event kind.
type frameEnvelope struct {
	Op   string `json:"op"`
	Type string `json:"type"`
}

// dispatchFrame decodes one WebSocket text frame and fans it out to the
// node's own handler table, then the client's global handler table, then
// each table's Raw handler. Raw runs even for a frame that fails to
// decode. It is invoked from a freshly spawned
// goroutine per frame by Node's read loop, so frames dispatch
// concurrently with respect to each other while each frame's own
// handlers run node-then-client, in order.
func dispatchFrame(client *Client, node *Node, data []byte) {
	sessionId := node.SessionId()
	defer func() { dispatchRaw(client, node, sessionId, data) }()

	var env frameEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		client.logger.Warn("malformed frame", zap.Error(err), zap.ByteString("data", data))
		return
	}

	switch env.Op {
	case "ready":
		var e Ready
		if err := json.Unmarshal(data, &e); err != nil {
			client.logger.Warn("malformed ready frame", zap.Error(err))
			return
		}
		node.setSessionId(e.SessionId)
		sessionId = e.SessionId
		dispatchReady(client, node, sessionId, e)
	case "stats":
		var e Stats
		if err := json.Unmarshal(data, &e); err != nil {
			client.logger.Warn("malformed stats frame", zap.Error(err))
			return
		}
		node.setLoad(e.Cpu, e.Memory)
		dispatchStats(client, node, sessionId, e)
	case "playerUpdate":
		var e PlayerUpdate
		if err := json.Unmarshal(data, &e); err != nil {
			client.logger.Warn("malformed playerUpdate frame", zap.Error(err))
			return
		}
		client.onPlayerUpdate(e)
		dispatchPlayerUpdate(client, node, sessionId, e)
	case "event":
		dispatchTypedEvent(client, node, sessionId, env.Type, data)
	default:
		client.logger.Debug("unknown op", zap.String("op", env.Op))
	}
}

func dispatchTypedEvent(client *Client, node *Node, sessionId string, eventType string, data []byte) {
	switch eventType {
	case "TrackStartEvent":
		var e TrackStart
		if err := json.Unmarshal(data, &e); err != nil {
			client.logger.Warn("malformed TrackStartEvent", zap.Error(err))
			return
		}
		if node.events.TrackStart != nil {
			node.events.TrackStart(client, sessionId, e)
		}
		if client.events.TrackStart != nil {
			client.events.TrackStart(client, sessionId, e)
		}
	case "TrackEndEvent":
		var e TrackEnd
		if err := json.Unmarshal(data, &e); err != nil {
			client.logger.Warn("malformed TrackEndEvent", zap.Error(err))
			return
		}
		client.onTrackEnd(e)
		if node.events.TrackEnd != nil {
			node.events.TrackEnd(client, sessionId, e)
		}
		if client.events.TrackEnd != nil {
			client.events.TrackEnd(client, sessionId, e)
		}
	case "TrackExceptionEvent":
		var e TrackException
		if err := json.Unmarshal(data, &e); err != nil {
			client.logger.Warn("malformed TrackExceptionEvent", zap.Error(err))
			return
		}
		if node.events.TrackException != nil {
			node.events.TrackException(client, sessionId, e)
		}
		if client.events.TrackException != nil {
			client.events.TrackException(client, sessionId, e)
		}
	case "TrackStuckEvent":
		var e TrackStuck
		if err := json.Unmarshal(data, &e); err != nil {
			client.logger.Warn("malformed TrackStuckEvent", zap.Error(err))
			return
		}
		if node.events.TrackStuck != nil {
			node.events.TrackStuck(client, sessionId, e)
		}
		if client.events.TrackStuck != nil {
			client.events.TrackStuck(client, sessionId, e)
		}
	case "WebSocketClosedEvent":
		var e WebSocketClosed
		if err := json.Unmarshal(data, &e); err != nil {
			client.logger.Warn("malformed WebSocketClosedEvent", zap.Error(err))
			return
		}
		if node.events.WebSocketClosed != nil {
			node.events.WebSocketClosed(client, sessionId, e)
		}
		if client.events.WebSocketClosed != nil {
			client.events.WebSocketClosed(client, sessionId, e)
		}
	default:
		client.logger.Debug("unknown event type", zap.String("type", eventType))
	}
}

func dispatchReady(client *Client, node *Node, sessionId string, e Ready) {
	if node.events.Ready != nil {
		node.events.Ready(client, sessionId, e)
	}
	if client.events.Ready != nil {
		client.events.Ready(client, sessionId, e)
	}
}

func dispatchStats(client *Client, node *Node, sessionId string, e Stats) {
	if node.events.Stats != nil {
		node.events.Stats(client, sessionId, e)
	}
	if client.events.Stats != nil {
		client.events.Stats(client, sessionId, e)
	}
}

func dispatchPlayerUpdate(client *Client, node *Node, sessionId string, e PlayerUpdate) {
	if node.events.PlayerUpdate != nil {
		node.events.PlayerUpdate(client, sessionId, e)
	}
	if client.events.PlayerUpdate != nil {
		client.events.PlayerUpdate(client, sessionId, e)
	}
}

func dispatchRaw(client *Client, node *Node, sessionId string, data []byte) {
	if node.events.Raw != nil {
		node.events.Raw(client, sessionId, data)
	}
	if client.events.Raw != nil {
		client.events.Raw(client, sessionId, data)
	}
}
