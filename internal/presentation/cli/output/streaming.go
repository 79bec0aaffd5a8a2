package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// DeltaPrinter writes streaming completion fragments as they arrive and
// guarantees the output ends on a fresh line.
type DeltaPrinter struct {
	mu      sync.Mutex
	writer  io.Writer
	wrote   bool
	newline bool
}

// DeltaPrinterOption is a functional option for configuring a DeltaPrinter.
type DeltaPrinterOption func(*DeltaPrinter)

// WithDeltaWriter sets the output writer.
func WithDeltaWriter(w io.Writer) DeltaPrinterOption {
	return func(p *DeltaPrinter) {
		p.writer = w
	}
}

// NewDeltaPrinter creates a new DeltaPrinter with the given options.
func NewDeltaPrinter(opts ...DeltaPrinterOption) *DeltaPrinter {
	p := &DeltaPrinter{writer: os.Stdout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Delta writes one content fragment without a trailing newline.
func (p *DeltaPrinter) Delta(fragment string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if fragment == "" {
		return nil
	}
	p.wrote = true
	p.newline = fragment[len(fragment)-1] == '\n'
	_, err := fmt.Fprint(p.writer, fragment)
	return err
}

// Finish terminates the streamed output with a newline if one is pending.
func (p *DeltaPrinter) Finish() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.wrote || p.newline {
		return nil
	}
	_, err := fmt.Fprintln(p.writer)
	return err
}

// Wrote reports whether any fragment was written.
func (p *DeltaPrinter) Wrote() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wrote
}
