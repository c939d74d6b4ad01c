package observe

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// ProgressObserver advances a terminal progress bar each time a task finishes.
type ProgressObserver struct {
	bar *progressbar.ProgressBar
}

// NewProgressObserver creates a bar expecting total task completions, written to w.
func NewProgressObserver(w io.Writer, total int, description string) *ProgressObserver {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "│",
			BarEnd:        "│",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(w),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &ProgressObserver{bar: bar}
}

func (p *ProgressObserver) Begin(Span) {}

func (p *ProgressObserver) End(Span, any, time.Duration) {
	_ = p.bar.Add(1)
}

func (p *ProgressObserver) Error(Span, error, time.Duration) {
	_ = p.bar.Add(1)
}

// Finish completes the bar and clears it from the terminal.
func (p *ProgressObserver) Finish() error {
	return p.bar.Finish()
}
