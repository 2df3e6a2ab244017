package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner renders a loading indicator on a background ticker. Stop cancels
// the ticker and clears the line. A disabled spinner is a no-op, used when
// output is not a terminal.
type Spinner struct {
	out     io.Writer
	message string
	enabled bool
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner creates a spinner writing to out.
func NewSpinner(out io.Writer, message string, enabled bool) *Spinner {
	return &Spinner{out: out, message: message, enabled: enabled}
}

// Start begins rendering frames until Stop is called.
func (s *Spinner) Start() {
	if !s.enabled {
		return
	}
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.spin()
}

func (s *Spinner) spin() {
	defer close(s.stopped)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	frame := 0
	for {
		select {
		case <-s.done:
			// Clear the spinner line
			fmt.Fprintf(s.out, "\r%s\r", strings.Repeat(" ", len(s.message)+10))
			return
		case <-ticker.C:
			fmt.Fprintf(s.out, "\r%s %s...", spinnerFrames[frame%len(spinnerFrames)], s.message)
			frame++
		}
	}
}

// Stop cancels the spinner and waits for the line to clear.
func (s *Spinner) Stop() {
	if !s.enabled || s.done == nil {
		return
	}
	close(s.done)
	<-s.stopped
	s.done = nil
}
