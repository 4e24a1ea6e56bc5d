package player

import (
	"time"

	tea "charm.land/bubbletea/v2"
)

// timerFiredMsg is delivered by the Bubble Tea runtime when a scheduled
// machine timer elapses.
type timerFiredMsg struct {
	id int
}

// teaScheduler turns machine timers into tea.Tick commands so every
// callback runs inside Update. Cancelling removes the callback; the tick
// message still arrives and is dropped.
type teaScheduler struct {
	nextID  int
	pending map[int]func()
	cmds    []tea.Cmd
}

func newTeaScheduler() *teaScheduler {
	return &teaScheduler{pending: make(map[int]func())}
}

func (s *teaScheduler) Schedule(d time.Duration, f func()) func() {
	s.nextID++
	id := s.nextID
	s.pending[id] = f
	s.cmds = append(s.cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return timerFiredMsg{id: id}
	}))
	return func() { delete(s.pending, id) }
}

// fire runs the callback for id if it is still pending.
func (s *teaScheduler) fire(id int) {
	f, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	f()
}

// drain returns the ticks scheduled since the last call.
func (s *teaScheduler) drain() tea.Cmd {
	if len(s.cmds) == 0 {
		return nil
	}
	cmds := s.cmds
	s.cmds = nil
	return tea.Batch(cmds...)
}

// cancelAll drops every pending callback.
func (s *teaScheduler) cancelAll() {
	clear(s.pending)
	s.cmds = nil
}
