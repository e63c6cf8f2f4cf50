package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// RenderKeybindHelp renders the transient hint bar shown after SPC,
// filtered by mode.
func RenderKeybindHelp(h *KeyHandler, mode AppMode) string {
	if h == nil || !h.LeaderWaiting {
		return ""
	}
	seq := h.CurrentSeq()
	hints := h.Registry.LeaderHints(seq, mode)
	if len(hints) == 0 {
		return ""
	}

	bindings := make([]key.Binding, 0, len(hints)+1)
	for _, k := range sortedKeys(hints) {
		bindings = append(bindings, key.NewBinding(key.WithKeys(k), key.WithHelp(k, hints[k])))
	}
	bindings = append(bindings, key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")))

	hm := help.New()
	hm.Styles.ShortKey = Styles.ActionKey
	hm.Styles.ShortDesc = Styles.Muted
	hm.Styles.ShortSeparator = Styles.Muted

	return Styles.PaneFocused.Render(Styles.Muted.Render(seq) + " " + hm.ShortHelpView(bindings))
}
