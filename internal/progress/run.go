// ABOUTME: Wires installer events to a terminal display or to plain log lines
// ABOUTME: Bridge converts bus events to tea messages; Plain writes one line per artifact

package progress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/mauromedda/mclaunch-go/internal/install"
)

const eventBuffer = 256

// ProgramSender matches *tea.Program's Send method.
type ProgramSender interface {
	Send(msg tea.Msg)
}

// Bridge forwards events to program until events is closed.
func Bridge(program ProgramSender, events <-chan install.Event) {
	for ev := range events {
		program.Send(EventMsg{Event: ev})
	}
}

// Plain returns a bus handler that writes finished and failed artifacts to w.
func Plain(w io.Writer) func(install.Event) {
	var mu sync.Mutex
	return func(ev install.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Kind {
		case install.Finished:
			fmt.Fprintf(w, "downloaded %s (%s)\n", ev.Name, humanize.IBytes(uint64(ev.Bytes)))
		case install.Failed:
			fmt.Fprintf(w, "failed %s: %v\n", ev.Name, ev.Err)
		}
	}
}

// Run executes work while rendering its events from bus. With interactive
// false, events are written to out as plain lines instead.
func Run(ctx context.Context, title string, bus *install.Bus, out io.Writer, interactive bool, work func(context.Context) error) error {
	if !interactive {
		unsub := bus.Subscribe(Plain(out))
		defer unsub()
		return work(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan install.Event, eventBuffer)
	unsub := bus.Forward(events)

	p := tea.NewProgram(NewModel(title), tea.WithOutput(out), tea.WithContext(ctx))
	bridged := make(chan struct{})
	go func() {
		Bridge(p, events)
		close(bridged)
	}()

	result := make(chan error, 1)
	go func() {
		err := work(ctx)
		unsub()
		close(events)
		<-bridged
		p.Send(DoneMsg{Err: err})
		result <- err
	}()

	_, runErr := p.Run()
	// a ctrl-c quits the display first; stop the work and wait for it
	cancel()
	workErr := <-result
	if workErr != nil {
		return workErr
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("progress display: %w", runErr)
	}
	return nil
}
