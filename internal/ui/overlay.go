package ui

import tea "github.com/charmbracelet/bubbletea"

// OverlayStack holds open modals. The topmost one receives input first.
type OverlayStack struct {
	Stack []View
}

// Push opens a modal on top.
func (s *OverlayStack) Push(v View) {
	s.Stack = append(s.Stack, v)
}

// Pop closes the top modal.
func (s *OverlayStack) Pop() (View, bool) {
	if len(s.Stack) == 0 {
		return nil, false
	}
	top := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	return top, true
}

// Peek returns the top modal without closing it.
func (s *OverlayStack) Peek() (View, bool) {
	if len(s.Stack) == 0 {
		return nil, false
	}
	return s.Stack[len(s.Stack)-1], true
}

// Len returns the number of open modals.
func (s *OverlayStack) Len() int {
	return len(s.Stack)
}

// UpdateTop passes msg to the top modal. ok is false when none is open.
func (s *OverlayStack) UpdateTop(msg tea.Msg) (cmd tea.Cmd, ok bool) {
	if len(s.Stack) == 0 {
		return nil, false
	}
	i := len(s.Stack) - 1
	s.Stack[i], cmd = s.Stack[i].Update(msg)
	return cmd, true
}
