package webd

import (
	"encoding/json"
	"github.com/olahol/melody"
	"github.com/rotblauer/ortomap/geomap"
)

type websocketAction string

const (
	websocketActionMaps   websocketAction = "maps"
	websocketActionLayer  websocketAction = "layer"
	websocketActionResult websocketAction = "result"
)

type broadcast struct {
	Action websocketAction `json:"action"`
	Data   any             `json:"data"`
}

func encodeBroadcast(action websocketAction, data any) ([]byte, error) {
	return json.Marshal(broadcast{Action: action, Data: data})
}

// initMelody sets up the websocket handler.
// Clients get every map on connect, then each layer appended afterwards.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	s.melodyInstance.HandleConnect(func(session *melody.Session) {
		s.logger.Debug("Websocket connected", "remote", session.Request.RemoteAddr)
		b, err := encodeBroadcast(websocketActionMaps, s.atlas.Snapshot())
		if err != nil {
			s.logger.Error("Failed to marshal maps", "error", err)
			return
		}
		if err := session.Write(b); err != nil {
			s.logger.Warn("Failed to write maps", "error", err)
		}
	})

	// Clients only listen. Log and drop.
	s.melodyInstance.HandleMessage(func(session *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", session.Request.RemoteAddr, "message", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(session *melody.Session) {
		s.logger.Debug("Websocket disconnected", "remote", session.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(session *melody.Session, e error) {
		s.logger.Warn("Websocket error", "error", e, "remote", session.Request.RemoteAddr)
	})

	events := make(chan geomap.LayerEvent)
	sub := s.atlas.SubscribeLayerEvents(events)
	s.track(sub)
	go func() {
		for {
			select {
			case ev := <-events:
				s.broadcast(websocketActionLayer, ev)
			case err := <-sub.Err():
				if err != nil {
					s.logger.Error("Layer event subscription failed", "error", err)
				}
				return
			case <-s.quit:
				return
			}
		}
	}()
}

func (s *WebDaemon) broadcast(action websocketAction, data any) {
	b, err := encodeBroadcast(action, data)
	if err != nil {
		s.logger.Error("Failed to marshal broadcast", "action", action, "error", err)
		return
	}
	if s.melodyInstance.IsClosed() {
		return
	}
	if err := s.melodyInstance.Broadcast(b); err != nil {
		s.logger.Warn("Failed to broadcast", "action", action, "error", err)
	}
}
