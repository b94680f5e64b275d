package webd

import (
	"encoding/json"

	"github.com/olahol/melody"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/events"
	"github.com/rotblauer/fixd/types/fix"
)

type websocketAction string

const (
	websocketActionSmoothed websocketAction = "smoothed"
	websocketActionReset    websocketAction = "reset"
)

type broadfix struct {
	Action websocketAction     `json:"action"`
	Device conceptual.DeviceID `json:"device"`
	Fix    *fix.SmoothedFix    `json:"fix,omitempty"`
}

// initMelody sets up the websocket handler.
// New connections are sent the last fix of every live session,
// then every update as it happens.
func (s *WebDaemon) initMelody() {
	s.melodyInstance = melody.New()

	s.melodyInstance.HandleConnect(func(sess *melody.Session) {
		s.logger.Info("Websocket connected", "remote", sess.Request.RemoteAddr)
		for device, last := range s.registry.Lasts() {
			b, _ := json.Marshal(broadfix{Action: websocketActionSmoothed, Device: device, Fix: &last})
			_ = sess.Write(b)
		}
	})

	// Right now don't care about incoming messages from clients. Log and drop.
	s.melodyInstance.HandleMessage(func(sess *melody.Session, msg []byte) {
		s.logger.Debug("Websocket message", "remote", sess.Request.RemoteAddr, "message", string(msg))
	})

	s.melodyInstance.HandleDisconnect(func(sess *melody.Session) {
		s.logger.Info("Websocket disconnected", "remote", sess.Request.RemoteAddr)
	})

	s.melodyInstance.HandleError(func(sess *melody.Session, e error) {
		s.logger.Warn("Websocket error", "remote", sess.Request.RemoteAddr, "error", e)
	})

	if s.registry.Feed == nil {
		return
	}
	updates := make(chan events.DeviceFix)
	updateSub := s.registry.Feed.Subscribe(updates)
	resets := make(chan conceptual.DeviceID)
	resetSub := events.ResetFeed.Subscribe(resets)
	s.subs = append(s.subs, updateSub, resetSub)

	go func() {
		for {
			var bc broadfix
			select {
			case u := <-updates:
				if u.Fix.Status == fix.StatusInvalid {
					continue
				}
				f := u.Fix
				bc = broadfix{Action: websocketActionSmoothed, Device: u.Device, Fix: &f}
			case device := <-resets:
				bc = broadfix{Action: websocketActionReset, Device: device}
			case err := <-updateSub.Err():
				if err != nil {
					s.logger.Error("Update subscription failed", "error", err)
				}
				return
			}
			b, err := json.Marshal(bc)
			if err != nil {
				s.logger.Error("Failed to marshal broadcast", "error", err)
				continue
			}
			if s.melodyInstance.Len() == 0 {
				continue
			}
			if err := s.melodyInstance.Broadcast(b); err != nil {
				s.logger.Warn("Failed to broadcast", "error", err)
			}
		}
	}()
}

// closeSocket ends the broadcast loop and closes every websocket.
func (s *WebDaemon) closeSocket() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
	if s.melodyInstance != nil {
		_ = s.melodyInstance.Close()
	}
}
