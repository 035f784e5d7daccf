//go:generate go tool stringer --linecomment --type EventKind

package mpv

import (
	"github.com/tsl0922/mpv-menu-plugin/node"
)

// EventKind classifies a host event.
type EventKind int

const (
	EventOther          EventKind = iota // other
	EventPropertyChange                  // property-change
	EventClientMessage                   // client-message
	EventShutdown                        // shutdown
)

// Event is an asynchronous message from the player.
type Event struct {
	Kind EventKind
	Type string // raw event name

	// property-change
	ID   int64
	Name string
	Data *node.Node // None when the property is unavailable

	// client-message
	Args []string
}

func parseEvent(msg *node.Node) Event {
	typ, _ := msg.GetString("event")
	ev := Event{Type: typ, Data: node.NewNone()}

	switch typ {
	case "property-change":
		ev.Kind = EventPropertyChange
		ev.ID, _ = msg.GetInt64("id")
		ev.Name, _ = msg.GetString("name")

		if data, ok := msg.Get("data"); ok {
			ev.Data = data
		}
	case "client-message":
		ev.Kind = EventClientMessage

		if args, ok := msg.Get("args"); ok {
			for _, a := range args.All() {
				if s, ok := a.Str(); ok {
					ev.Args = append(ev.Args, s)
				}
			}
		}
	case "shutdown":
		ev.Kind = EventShutdown
	}

	return ev
}
