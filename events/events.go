package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/fixd/conceptual"
	"github.com/rotblauer/fixd/types/fix"
)

// DeviceFix is one filter update: the raw fix a device reported and what the filter made of it.
type DeviceFix struct {
	Device conceptual.DeviceID `json:"device"`
	Raw    fix.RawFix          `json:"raw"`
	Fix    fix.SmoothedFix     `json:"fix"`
}

// SmoothedFeed is emitted for every update of every session, in update order per device.
// Subscribers must keep up; a Send blocks until every subscriber has received the value.
var SmoothedFeed = event.FeedOf[DeviceFix]{}

// ResetFeed is emitted when a device's lock is reset on request.
var ResetFeed = event.FeedOf[conceptual.DeviceID]{}
