// Package progress reports per-chapter download progress.
package progress

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// Event is published once per chapter attempt, successful or not, plus once
// at run start covering the chapters already stored.
type Event struct {
	Completed   int
	Total       int
	Description string
	Title       string
}

// Sink receives progress events. Publishers may call it from multiple
// goroutines.
type Sink interface {
	Publish(Event)
}

// Func adapts a function to the Sink interface.
type Func func(Event)

func (f Func) Publish(e Event) { f(e) }

// Discard returns a sink that drops every event.
func Discard() Sink {
	return Func(func(Event) {})
}

var counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

// Bar renders a terminal progress bar, redrawn in place on every event.
type Bar struct {
	mu    sync.Mutex
	out   io.Writer
	model progress.Model
}

func NewBar(out io.Writer) *Bar {
	model := progress.New(progress.WithDefaultGradient())
	model.Width = 40
	return &Bar{out: out, model: model}
}

func (b *Bar) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	percent := 0.0
	if e.Total > 0 {
		percent = float64(e.Completed) / float64(e.Total)
	}
	counter := counterStyle.Render(fmt.Sprintf("%d/%d", e.Completed, e.Total))
	fmt.Fprintf(b.out, "\r%s %s %s %s\033[K", e.Description, b.model.ViewAs(percent), counter, e.Title)
	if e.Completed >= e.Total {
		fmt.Fprintln(b.out)
	}
}
