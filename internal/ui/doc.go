// Package ui is the terminal front end of blescope, built on Bubble Tea.
//
// Layout:
//   - DeviceListView: devices found by the latest scan
//   - DevicePanel: details of the selected or connected device
//   - ServicesView: GATT table (UUID / Properties / Signal) plus the transcript
//   - ActivityLog: every task and session event, shown as an overlay
//   - Overlays: modals (write prompt, quit confirmation) that take input first
//
// The UI never calls the BLE stack. Key presses become messages; handlers
// submit tasks to the task queue, and session events come back through a
// progress.Feed that one tea.Cmd at a time drains into Update.
package ui
