package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter tracks a job with a known number of steps.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// NewProgressReporter returns a reporter that redraws one status line on w
// (os.Stderr when nil). unit names what is being counted, e.g. "records".
func NewProgressReporter(w io.Writer, unit string) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{out: w, unit: unit, now: time.Now}
}

// SimpleProgress is a single-line bar. It draws nothing for an empty job.
type SimpleProgress struct {
	out  io.Writer
	unit string
	now  func() time.Time

	mu          sync.Mutex
	done, total int64
	begin       time.Time
}

func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total, p.done, p.begin = total, 0, p.now()
	p.draw()
}

// Update moves the bar to current, capped at the total.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = min(current, p.total)
	p.draw()
}

func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done = p.total
	p.draw()
	if p.total > 0 {
		fmt.Fprintln(p.out)
	}
}

func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n✗ Error: %v\n", err)
}

const barCells = 30

func (p *SimpleProgress) draw() {
	if p.total <= 0 {
		return
	}
	frac := float64(p.done) / float64(p.total)
	cells := int(frac * barCells)

	perSec := 0.0
	if secs := p.now().Sub(p.begin).Seconds(); secs > 0 {
		perSec = float64(p.done) / secs
	}

	fmt.Fprintf(p.out, "\r%s%s %d/%d %s %3.0f%% %.0f/s",
		strings.Repeat("#", cells), strings.Repeat(".", barCells-cells),
		p.done, p.total, p.unit, frac*100, perSec)
}

// NopProgress discards all progress.
type NopProgress struct{}

func (NopProgress) Start(int64)  {}
func (NopProgress) Update(int64) {}
func (NopProgress) Finish()      {}
func (NopProgress) Error(error)  {}
