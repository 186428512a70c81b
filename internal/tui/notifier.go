package tui

import tea "github.com/charmbracelet/bubbletea"

type toastMsg string

// ChannelNotifier delivers toasts to the running program. Notify never
// blocks: when the buffer is full the oldest pending toast is dropped.
type ChannelNotifier struct {
	ch chan string
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelNotifier{ch: make(chan string, buffer)}
}

func (n *ChannelNotifier) Notify(message string) {
	for {
		select {
		case n.ch <- message:
			return
		default:
		}
		select {
		case <-n.ch:
		default:
		}
	}
}

// Wait returns a command that resolves with the next toast.
func (n *ChannelNotifier) Wait() tea.Cmd {
	return func() tea.Msg {
		return toastMsg(<-n.ch)
	}
}
