package scan

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressSpinner shows scanning progress with a spinning animation
type ProgressSpinner struct {
	processed  int64
	discovered int64
	out        io.Writer
	label      string
	mu         sync.Mutex
	ticker     *time.Ticker
	done       chan bool
	startTime  time.Time
}

// NewProgressSpinner creates and starts a new progress spinner writing to out
func NewProgressSpinner(out io.Writer, label string) *ProgressSpinner {
	s := &ProgressSpinner{
		out:       out,
		label:     label,
		ticker:    time.NewTicker(100 * time.Millisecond),
		done:      make(chan bool),
		startTime: time.Now(),
	}

	go s.animate()

	return s
}

// animate runs the spinner animation in a background goroutine
func (s *ProgressSpinner) animate() {
	// Unicode braille spinner characters
	chars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	i := 0

	for {
		select {
		case <-s.ticker.C:
			s.mu.Lock()
			fmt.Fprintf(s.out, "\r%s Scanning %s: %s / %s items processed",
				chars[i],
				s.label,
				formatNumber(s.Processed()),
				formatNumber(atomic.LoadInt64(&s.discovered)))
			s.mu.Unlock()
			i = (i + 1) % len(chars)
		case <-s.done:
			return
		}
	}
}

// IncrementProcessed increments the processed counter
func (s *ProgressSpinner) IncrementProcessed() {
	atomic.AddInt64(&s.processed, 1)
}

// IncrementDiscovered increments the discovered counter by n
func (s *ProgressSpinner) IncrementDiscovered(n int) {
	atomic.AddInt64(&s.discovered, int64(n))
}

func (s *ProgressSpinner) Processed() int64 {
	return atomic.LoadInt64(&s.processed)
}

func (s *ProgressSpinner) Discovered() int64 {
	return atomic.LoadInt64(&s.discovered)
}

// Stop stops the spinner and prints the final summary
func (s *ProgressSpinner) Stop() {
	s.ticker.Stop()
	s.done <- true

	elapsed := time.Since(s.startTime)

	s.mu.Lock()
	fmt.Fprintf(s.out, "\r✓ Scanned %s: %s items in %.1fs\n",
		s.label,
		formatNumber(s.Processed()),
		elapsed.Seconds())
	s.mu.Unlock()
}

// formatNumber formats a number with thousand separators
func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
