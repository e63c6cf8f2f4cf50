package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"blescope/internal/session"
)

func (a *AppModel) handleScan() tea.Cmd {
	a.submit("scan", a.scanTask)
	return nil
}

func (a *AppModel) handleConnect() tea.Cmd {
	if a.Mode == ModeConnected {
		a.setError(describeError(session.ErrAlreadyConnected))
		return nil
	}
	entry, ok := a.Devices.Selected()
	if !ok {
		a.setError("Invalid device selected.")
		return nil
	}
	a.submit("connect "+entry.Device.Address, a.connectTask(entry.Device.Address))
	return nil
}

func (a *AppModel) handleDisconnect() tea.Cmd {
	if a.Mode != ModeConnected {
		a.setStatus("Not connected.")
		return nil
	}
	a.submit("disconnect", a.disconnectTask)
	return nil
}

func (a *AppModel) handleReadAll() tea.Cmd {
	if a.Mode != ModeConnected {
		a.setStatus("Not connected.")
		return nil
	}
	a.submit("read all", a.readAllTask)
	return nil
}

// handleShowWrite opens the write prompt, prefilled with the highlighted
// characteristic when it accepts writes.
func (a *AppModel) handleShowWrite() tea.Cmd {
	if a.Mode != ModeConnected {
		a.setStatus("Not connected.")
		return nil
	}
	prefill := ""
	if row, ok := a.Services.SelectedRow(); ok && row.Characteristic.Properties.Writable() {
		prefill = row.Characteristic.UUID
	}
	m := NewWriteModal(prefill)
	a.Overlays.Push(m)
	return m.Init()
}

func (a *AppModel) handleWrite(msg WriteMsg) tea.Cmd {
	a.Overlays.Pop()
	a.submit("write "+msg.UUID, a.writeTask(msg.UUID, msg.Payload))
	return nil
}

func (a *AppModel) handleExport() tea.Cmd {
	if a.Mode != ModeConnected {
		a.setStatus("Not connected.")
		return nil
	}
	if a.Captures == nil {
		a.setError("Export is not configured.")
		return nil
	}
	a.submit("export", a.exportTask)
	return nil
}

func (a *AppModel) handleCancel() tea.Cmd {
	if a.Queue == nil || !a.Queue.CancelCurrent() {
		a.setStatus("Nothing to cancel.")
		return nil
	}
	a.setStatus("Cancelling " + a.busyTask + "...")
	return nil
}

func (a *AppModel) handleRequestQuit() tea.Cmd {
	if a.Mode == ModeConnected {
		m := NewQuitConfirmModal(a.connectedAddr)
		a.Overlays.Push(m)
		return m.Init()
	}
	return tea.Quit
}
