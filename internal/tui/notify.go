package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// listChangedMsg tells the program that some list controller changed.
// Views read fresh snapshots, so one pending message covers any number of
// changes. from identifies the dashboard the change belongs to.
type listChangedMsg struct {
	from *notifier
}

// notifier turns controller callbacks (fired from fetch goroutines) into
// bubbletea messages.
type notifier struct {
	ch   chan struct{}
	done chan struct{}
	once sync.Once
}

func newNotifier() *notifier {
	return &notifier{
		ch:   make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// signal is safe to call from any goroutine and never blocks.
func (n *notifier) signal() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

// wait returns a command that delivers the next change. After stop the
// command returns nil.
func (n *notifier) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-n.done:
			return nil
		default:
		}
		select {
		case <-n.ch:
			return listChangedMsg{from: n}
		case <-n.done:
			return nil
		}
	}
}

// stop releases every pending wait.
func (n *notifier) stop() {
	n.once.Do(func() { close(n.done) })
}
