// ABOUTME: Progress events emitted by the installer for each artifact job
// ABOUTME: Published on an eventbus.Bus so the CLI can render them

package install

import (
	"fmt"

	"github.com/mauromedda/mclaunch-go/internal/eventbus"
)

// Kind classifies an Event.
type Kind int

const (
	// Planned announces a batch; Total is the number of jobs in it.
	Planned Kind = iota
	Started
	Finished
	Skipped
	Failed
)

func (k Kind) String() string {
	switch k {
	case Planned:
		return "planned"
	case Started:
		return "started"
	case Finished:
		return "finished"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event reports the progress of one job.
type Event struct {
	Kind  Kind
	Name  string
	Bytes int64
	Total int
	Err   error
}

// Bus is the bus type the installer publishes on.
type Bus = eventbus.Bus[Event]

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return eventbus.New[Event]()
}
