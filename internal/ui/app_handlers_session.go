package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"blescope/internal/ble"
	"blescope/internal/progress"
	"blescope/internal/session"
)

// handleFeedEvent applies one event from the feed to the widgets.
func (a *AppModel) handleFeedEvent(ev any) tea.Cmd {
	a.Activity.Record(ev)

	switch e := ev.(type) {
	case progress.Event:
		return a.handleTaskEvent(e)

	case session.ScanStarted:
		a.setStatus(fmt.Sprintf("Scanning for %s...", e.Timeout))
		if a.Mode == ModeDisconnected {
			a.Panel.Clear()
		}
		return a.Devices.StartScan()
	case session.DeviceFound:
		a.setStatus(fmt.Sprintf("Scanning... %d device(s) found", e.Count))
		return a.Devices.AddDevice(e.Entry)
	case session.ScanFinished:
		a.Devices.FinishScan(e.Entries)
		if len(e.Entries) == 0 {
			a.setStatus("No BLE devices found.")
			return nil
		}
		a.setStatus(fmt.Sprintf("Scan complete: %d device(s). Select one and press enter.", len(e.Entries)))
		if sel, ok := a.Devices.Selected(); ok && a.Mode == ModeDisconnected {
			a.Panel.Show(sel.Device, false)
		}
	case session.ScanFailed:
		a.Devices.FailScan(e.Err)
		a.setError("Error: " + e.Err.Error())

	case session.Connecting:
		a.Services.Clear()
		a.Services.ResetTranscript(fmt.Sprintf("Connecting to %s...", e.Address))
		a.setStatus(fmt.Sprintf("Connecting to %s...", e.Address))
	case session.ServiceDiscovered:
		a.Services.Append("[Service] " + e.UUID)
	case session.CharacteristicListed:
		a.Services.Append(fmt.Sprintf("  - %s (%s)", e.Characteristic.UUID, e.Characteristic.Properties))
	case session.CharacteristicRead:
		a.Services.Append(fmt.Sprintf("    * Data: %x", e.Value))
	case session.CharacteristicReadFailed:
		a.Services.Append(fmt.Sprintf("    * Error reading: %v", e.Err))
	case session.Connected:
		a.Mode = ModeConnected
		a.connectedAddr = e.Device.Address
		a.Panel.Show(e.Device, true)
		a.Services.SetListing([]string{
			fmt.Sprintf("Connecting to %s...", e.Device.Address),
			"Connected! Services detected:",
			"",
		}, e.Listing)
		a.setStatus(fmt.Sprintf("Connected to %s: %d service(s), %d characteristic(s)",
			e.Device.Address, len(e.Listing.Services), len(e.Listing.Rows)))
	case session.ConnectFailed:
		a.Services.Append("Connection Failed: " + e.Err.Error())
		a.setError("Connection Failed: " + describeError(e.Err))

	case session.ReadAllFinished:
		a.Services.SetListing([]string{
			fmt.Sprintf("Connected to %s. Values refreshed:", a.connectedAddr),
			"",
		}, e.Listing)
		a.setStatus("Read complete.")
	case session.WriteDone:
		mode := "without response"
		if e.WithResponse {
			mode = "with response"
		}
		a.Services.Append(fmt.Sprintf("Wrote %d byte(s) to %s (%s).", e.Bytes, e.UUID, mode))
		a.setStatus(fmt.Sprintf("Wrote %d byte(s) to %s.", e.Bytes, ble.ShortUUID(e.UUID)))
	case session.WriteFailed:
		a.Services.Append(fmt.Sprintf("Write to %s failed: %v", e.UUID, e.Err))
		a.setError("Write failed: " + describeError(e.Err))

	case session.Disconnected:
		a.Mode = ModeDisconnected
		a.connectedAddr = ""
		a.Panel.Clear()
		a.Services.Clear()
		a.setFocus(FocusDevices)
		if e.Reason == session.ReasonLinkLost {
			a.setError(fmt.Sprintf("Connection to %s lost.", e.Address))
		} else {
			a.setStatus(fmt.Sprintf("Disconnected from %s.", e.Address))
		}
	case session.DisconnectFailed:
		// The handle is dropped either way.
		a.Mode = ModeDisconnected
		a.connectedAddr = ""
		a.Panel.Clear()
		a.Services.Clear()
		a.setFocus(FocusDevices)
		a.setError("Disconnect failed: " + e.Err.Error())

	case session.Notice:
		a.setStatus(e.Message)
	}
	return nil
}

// handleTaskEvent tracks the running task for the spinner and reports
// failures that no session event describes.
func (a *AppModel) handleTaskEvent(e progress.Event) tea.Cmd {
	a.Logger.Debug("task event", "task", e.Task, "id", e.TaskID, "status", e.Status)
	switch e.Status {
	case progress.StatusRunning:
		start := a.busyTask == ""
		a.busyTask = e.Task
		a.setStatus(e.Message)
		if start {
			return a.spinner.Tick
		}
	case progress.StatusDone:
		a.busyTask = ""
	case progress.StatusAborted:
		a.busyTask = ""
		a.setStatus("Cancelled: " + e.Task)
	case progress.StatusError:
		a.busyTask = ""
		if !a.StatusIsError {
			a.setError(describeError(e.Err))
		}
	}
	return nil
}
