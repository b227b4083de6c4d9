package ws

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/MS-707/3DGame/game"
	"github.com/MS-707/3DGame/internal/proto"
)

// sender is the slice of the hub subscriber the read loop needs.
type sender interface {
	Send(data []byte) bool
}

// readLoop drains inbound frames, dispatching each by kind. Every failure
// is contained here: malformed frames are dropped with a log line and the
// connection keeps going, while a read error tears the session down.
func (h *Handler) readLoop(playerID string, conn *websocket.Conn, sub sender) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			h.hub.DisconnectSession(playerID, sub)
			return
		}

		env, err := proto.DecodeEnvelope(payload)
		if err != nil {
			h.logger.V(1).Info("discarding malformed frame", "player", playerID, "err", err.Error())
			continue
		}

		switch env.Kind {
		case proto.KindPlayerMoved:
			msg, err := proto.DecodePayload[proto.PlayerMoved](env)
			if err != nil {
				h.logger.V(1).Info("discarding malformed move", "player", playerID, "err", err.Error())
				continue
			}
			h.hub.EnqueueMove(playerID, game.MoveCommand{
				Position:  msg.Position,
				HullYaw:   msg.HullYaw,
				TurretYaw: msg.TurretYaw,
				Seq:       msg.Seq,
			})

		case proto.KindPlayerShot:
			msg, err := proto.DecodePayload[proto.PlayerShot](env)
			if err != nil {
				h.logger.V(1).Info("discarding malformed shot", "player", playerID, "err", err.Error())
				continue
			}
			h.hub.EnqueueFire(playerID, game.FireCommand{
				Position:  msg.Position,
				Direction: msg.Direction,
			})

		case proto.KindChatMessage:
			msg, err := proto.DecodePayload[proto.ChatMessage](env)
			if err != nil {
				h.logger.V(1).Info("discarding malformed chat", "player", playerID, "err", err.Error())
				continue
			}
			h.hub.BroadcastChat(playerID, msg.Text)

		case proto.KindPing:
			msg, err := proto.DecodePayload[proto.Ping](env)
			if err != nil {
				h.logger.V(1).Info("discarding malformed ping", "player", playerID, "err", err.Error())
				continue
			}
			now := time.Now()
			h.hub.RecordHeartbeat(playerID, now, msg.Timestamp)
			pong, err := proto.Encode(proto.KindPong, proto.Pong{
				Timestamp:  msg.Timestamp,
				ServerTime: now.UnixMilli(),
			})
			if err != nil {
				h.logger.Error(err, "failed to encode pong", "player", playerID)
				continue
			}
			sub.Send(pong)

		default:
			h.logger.V(1).Info("unknown message kind", "player", playerID, "kind", env.Kind)
		}
	}
}
