// Package ui holds terminal helpers for the CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// Spinner animates a status line. On a non-terminal writer it prints each
// message once on its own line instead.
type Spinner struct {
	out         io.Writer
	interactive bool

	mu   sync.Mutex
	msg  string
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner writes to stderr.
func NewSpinner() *Spinner {
	return NewSpinnerTo(os.Stderr)
}

// NewSpinnerTo writes to w; animation is enabled only when w is a terminal.
func NewSpinnerTo(w io.Writer) *Spinner {
	s := &Spinner{out: w}
	if f, ok := w.(*os.File); ok {
		s.interactive = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return s
}

// Start shows msg and begins animating.
func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
	if !s.interactive {
		fmt.Fprintln(s.out, msg)
		return
	}
	if s.done != nil {
		return
	}
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.run(s.done)
}

// Update replaces the message. It matches the progress callback signature.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == s.msg {
		return
	}
	s.msg = msg
	if !s.interactive {
		fmt.Fprintln(s.out, msg)
	}
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.mu.Unlock()
	if done == nil {
		return
	}
	close(done)
	s.wg.Wait()
	fmt.Fprint(s.out, "\r\033[K")
}

func (s *Spinner) run(done <-chan struct{}) {
	defer s.wg.Done()
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r\033[K%c %s", frames[i%len(frames)], s.msg)
			s.mu.Unlock()
		}
	}
}
