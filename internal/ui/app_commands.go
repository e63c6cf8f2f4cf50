package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"blescope/internal/ble"
	"blescope/internal/progress"
	"blescope/internal/session"
	"blescope/internal/taskq"
)

// listenCmd waits for exactly one event on feed. Update re-arms it after
// every event, so events are handled one at a time and in order.
func listenCmd(feed *progress.Feed) tea.Cmd {
	if feed == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case ev := <-feed.C():
			return feedMsg{Event: ev}
		case <-feed.Done():
			return feedClosedMsg{}
		}
	}
}

// submit queues a task and reports a rejected submission in the status bar.
func (a *AppModel) submit(name string, fn taskq.Func) {
	if a.Queue == nil {
		a.setError("No task queue")
		return
	}
	if _, err := a.Queue.Submit(name, fn); err != nil {
		a.setError(describeError(err))
		return
	}
	if a.Queue.Busy() || a.Queue.Pending() > 0 {
		a.setStatus("Queued: " + name)
	}
}

func (a *AppModel) scanTask(ctx context.Context) error { return a.Session.Scan(ctx) }

func (a *AppModel) disconnectTask(ctx context.Context) error { return a.Session.Disconnect(ctx) }

func (a *AppModel) readAllTask(ctx context.Context) error { return a.Session.ReadAll(ctx) }

// connectTask connects by address; labels go stale as RSSI updates arrive.
func (a *AppModel) connectTask(address string) taskq.Func {
	return func(ctx context.Context) error { return a.Session.Connect(ctx, address) }
}

func (a *AppModel) writeTask(uuid string, payload []byte) taskq.Func {
	return func(ctx context.Context) error { return a.Session.Write(ctx, uuid, payload) }
}

// exportTask saves the current listing and reports the file as a notice.
func (a *AppModel) exportTask(_ context.Context) error {
	d, ok := a.Session.Device()
	if !ok {
		return ble.ErrNotConnected
	}
	path, err := a.Captures.Save(d, a.Session.Listing())
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	a.Logger.Info("capture saved", "address", d.Address, "path", path)
	a.Feed.Emit(session.Notice{Message: "Saved capture to " + path})
	return nil
}
