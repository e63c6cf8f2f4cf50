package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestKeybindRegistry_BindLookup(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	reg.Bind("SPC q", tea.Quit)
	reg.Bind("j", nil)

	if reg.Lookup("q") == nil {
		t.Error("expected q to be bound")
	}
	if reg.Lookup("SPC q") == nil {
		t.Error("expected SPC q to be bound")
	}
	if reg.Lookup("unknown") != nil {
		t.Error("expected unknown to be unbound")
	}
}

func TestKeybindRegistry_ModeFilter(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.BindWithDescForMode("d", tea.Quit, "Disconnect", []AppMode{ModeConnected})

	if reg.LookupForMode("d", ModeDisconnected) != nil {
		t.Error("d should be unbound while disconnected")
	}
	if reg.LookupForMode("d", ModeConnected) == nil {
		t.Error("d should be bound while connected")
	}
}

func TestKeyHandler_LeaderKey(t *testing.T) {
	reg := NewKeybindRegistry()
	var executed bool
	reg.Bind("SPC x", func() tea.Msg {
		executed = true
		return nil
	})
	h := NewKeyHandler(reg)

	// Press space -> leader waiting (Bubble Tea reports space as " ")
	consumed, cmd := h.Handle(keyMsg(" "), ModeDisconnected)
	if !consumed || cmd != nil {
		t.Errorf("space: consumed=%v cmd=%v", consumed, cmd)
	}
	if !h.LeaderWaiting {
		t.Error("expected leader waiting after space")
	}
	if h.CurrentSeq() != "SPC" {
		t.Errorf("CurrentSeq = %q", h.CurrentSeq())
	}

	consumed, cmd = h.Handle(keyMsg("x"), ModeDisconnected)
	if !consumed {
		t.Errorf("x: expected consumed")
	}
	if h.LeaderWaiting {
		t.Error("leader should not be waiting after completing sequence")
	}
	if cmd == nil {
		t.Fatal("expected a command for SPC x")
	}
	cmd()
	if !executed {
		t.Error("expected command to execute")
	}
}

func TestKeyHandler_EscCancelsLeader(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC x", tea.Quit)
	h := NewKeyHandler(reg)

	h.Handle(keyMsg(" "), ModeDisconnected)
	if !h.LeaderWaiting {
		t.Fatal("expected leader waiting")
	}

	consumed, cmd := h.Handle(keyMsg("esc"), ModeDisconnected)
	if !consumed || cmd != nil {
		t.Errorf("esc: consumed=%v cmd=%v", consumed, cmd)
	}
	if h.LeaderWaiting {
		t.Error("esc should cancel leader mode")
	}
}

func TestKeyHandler_UnknownLeaderSequenceResets(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("SPC x", tea.Quit)
	h := NewKeyHandler(reg)

	h.Handle(keyMsg(" "), ModeDisconnected)
	consumed, cmd := h.Handle(keyMsg("z"), ModeDisconnected)
	if !consumed || cmd != nil {
		t.Errorf("z: consumed=%v cmd=%v", consumed, cmd)
	}
	if h.LeaderWaiting {
		t.Error("unknown sequence should leave leader mode")
	}
}

func TestKeyHandler_SingleKey(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	h := NewKeyHandler(reg)

	consumed, cmd := h.Handle(keyMsg("q"), ModeDisconnected)
	if !consumed || cmd == nil {
		t.Errorf("q: consumed=%v cmd=%v", consumed, cmd)
	}
}

func TestKeyHandler_UnboundFallsThrough(t *testing.T) {
	reg := NewKeybindRegistry()
	reg.Bind("q", tea.Quit)
	h := NewKeyHandler(reg)

	consumed, _ := h.Handle(keyMsg("j"), ModeDisconnected)
	if consumed {
		t.Error("unbound j should not be consumed")
	}
}

func TestLeaderHints_FollowMode(t *testing.T) {
	reg := defaultKeybinds()

	hints := reg.LeaderHints("SPC", ModeDisconnected)
	if _, ok := hints["c"]; !ok {
		t.Error("expected SPC c while disconnected")
	}
	if _, ok := hints["w"]; ok {
		t.Error("SPC w should be hidden while disconnected")
	}

	hints = reg.LeaderHints("SPC", ModeConnected)
	if _, ok := hints["w"]; !ok {
		t.Error("expected SPC w while connected")
	}
	if _, ok := hints["c"]; ok {
		t.Error("SPC c should be hidden while connected")
	}
}

// keyMsg creates a tea.KeyMsg for testing. Bubble Tea uses KeyType and Runes.
// KeySpace.String() returns " ", KeyEsc returns "esc", etc.
func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "space", " ":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+x":
		return tea.KeyMsg{Type: tea.KeyCtrlX}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}
