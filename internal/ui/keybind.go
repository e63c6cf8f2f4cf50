package ui

import (
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// binding is one registered key sequence.
type binding struct {
	cmd   tea.Cmd
	desc  string
	modes []AppMode // empty = every mode
}

func (b binding) appliesTo(mode AppMode) bool {
	if len(b.modes) == 0 {
		return true
	}
	for _, m := range b.modes {
		if m == mode {
			return true
		}
	}
	return false
}

// KeybindRegistry maps key sequences to commands.
// Sequences use spacemacs-style notation: "SPC" for space, "SPC w" for SPC then w.
// Single keys use tea.KeyMsg.String() names: "s", "enter", "ctrl+c".
type KeybindRegistry struct {
	bindings map[string]binding
}

// NewKeybindRegistry creates an empty registry.
func NewKeybindRegistry() *KeybindRegistry {
	return &KeybindRegistry{bindings: make(map[string]binding)}
}

// Bind registers seq for every mode, overwriting any existing binding.
func (r *KeybindRegistry) Bind(seq string, cmd tea.Cmd) {
	r.BindWithDescForMode(seq, cmd, "", nil)
}

// BindWithDesc registers seq for every mode with a help description.
func (r *KeybindRegistry) BindWithDesc(seq string, cmd tea.Cmd, desc string) {
	r.BindWithDescForMode(seq, cmd, desc, nil)
}

// BindWithDescForMode registers seq for the given modes only.
func (r *KeybindRegistry) BindWithDescForMode(seq string, cmd tea.Cmd, desc string, modes []AppMode) {
	r.bindings[normalizeSeq(seq)] = binding{cmd: cmd, desc: desc, modes: modes}
}

// Lookup returns the command for seq in any mode, or nil.
func (r *KeybindRegistry) Lookup(seq string) tea.Cmd {
	return r.bindings[normalizeSeq(seq)].cmd
}

// LookupForMode returns the command for seq if it applies to mode.
func (r *KeybindRegistry) LookupForMode(seq string, mode AppMode) tea.Cmd {
	b, ok := r.bindings[normalizeSeq(seq)]
	if !ok || !b.appliesTo(mode) {
		return nil
	}
	return b.cmd
}

// HasPrefix reports whether a longer binding starts with seq.
func (r *KeybindRegistry) HasPrefix(seq string) bool {
	prefix := normalizeSeq(seq) + " "
	for k := range r.bindings {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// LeaderHints returns the next keys after currentSeq (default "SPC") that
// apply to mode, mapped to their descriptions.
func (r *KeybindRegistry) LeaderHints(currentSeq string, mode AppMode) map[string]string {
	prefix := "SPC "
	if currentSeq != "" {
		prefix = normalizeSeq(currentSeq) + " "
	}
	out := make(map[string]string)
	for seq, b := range r.bindings {
		if b.cmd == nil || !strings.HasPrefix(seq, prefix) || !b.appliesTo(mode) {
			continue
		}
		rest := strings.Fields(strings.TrimPrefix(seq, prefix))
		if len(rest) == 0 {
			continue
		}
		k := rest[0]
		switch {
		case len(rest) > 1:
			out[k] = k + "…"
		case b.desc != "":
			out[k] = b.desc
		default:
			out[k] = seq
		}
	}
	return out
}

// sortedKeys returns map keys in display order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// normalizeSeq converts tea key strings to the canonical sequence format.
func normalizeSeq(seq string) string {
	parts := strings.Fields(seq)
	for i, p := range parts {
		parts[i] = keyToSeqPart(p)
	}
	if seq == " " {
		return "SPC"
	}
	return strings.Join(parts, " ")
}

func keyToSeqPart(s string) string {
	if s == " " || s == "space" {
		return "SPC"
	}
	return s
}

// KeyHandler tracks leader state and dispatches keys to the registry.
type KeyHandler struct {
	Registry      *KeybindRegistry
	LeaderWaiting bool     // SPC was pressed and the sequence is incomplete
	Buffer        []string // sequence typed so far, starting with "SPC"
}

// NewKeyHandler creates a handler with SPC as leader.
func NewKeyHandler(reg *KeybindRegistry) *KeyHandler {
	return &KeyHandler{Registry: reg}
}

// Handle processes a key press in mode. consumed is true when the key
// belonged to the keybind system and must not reach the focused pane.
func (h *KeyHandler) Handle(msg tea.KeyMsg, mode AppMode) (consumed bool, cmd tea.Cmd) {
	s := msg.String()

	if s == "esc" {
		if h.LeaderWaiting {
			h.reset()
			return true, nil
		}
		return false, nil
	}

	// Bubble Tea reports space as " ".
	if s == " " && !h.LeaderWaiting {
		h.LeaderWaiting = true
		h.Buffer = []string{"SPC"}
		return true, nil
	}

	if h.LeaderWaiting {
		h.Buffer = append(h.Buffer, keyToSeqPart(s))
		seq := strings.Join(h.Buffer, " ")
		if c := h.Registry.LookupForMode(seq, mode); c != nil {
			h.reset()
			return true, c
		}
		if h.Registry.HasPrefix(seq) {
			return true, nil
		}
		h.reset()
		return true, nil
	}

	if c := h.Registry.LookupForMode(s, mode); c != nil {
		return true, c
	}
	return false, nil
}

// CurrentSeq is the pending leader sequence, e.g. "SPC".
func (h *KeyHandler) CurrentSeq() string {
	return strings.Join(h.Buffer, " ")
}

func (h *KeyHandler) reset() {
	h.LeaderWaiting = false
	h.Buffer = nil
}
