// Package progress wraps schollz/progressbar (the same dependency
// ivoronin-dupedog's own internal/progress/progress.go uses) behind the
// dedup core's on_progress contract (spec §4.8/§4.9: a callback taking a
// fractional completion in [0,1] and a stage message), in place of raw
// byte/file counters.
package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/rknightion/paperless-dedupe/internal/model"
)

const updateInterval = 50 * time.Millisecond

// barScale is the bar's internal integer resolution; a fraction of 0.4173
// renders as 41/100, which is plenty of precision for a terminal bar.
const barScale = 100

// Bar wraps progressbar with enabled/disabled handling. All methods are
// no-ops when disabled. New takes only the enabled flag; the bar works in
// fractions of barScale rather than a caller-supplied total.
type Bar struct {
	bar *progressbar.ProgressBar
}

// New creates a progress bar. If enabled is false, the returned Bar's
// Reporter is a no-op -- safe to pass to AnalysisOptions/SyncOptions
// unconditionally.
func New(enabled bool) *Bar {
	if !enabled {
		return &Bar{}
	}
	return &Bar{bar: progressbar.NewOptions64(barScale,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(updateInterval),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
	)}
}

// Reporter returns a model.ProgressFunc bound to this bar: each call moves
// the bar to fraction*100 and updates its description to message.
func (b *Bar) Reporter() model.ProgressFunc {
	return func(fraction float64, message string) {
		if b.bar == nil {
			return
		}
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		_ = b.bar.Set64(int64(fraction * barScale))
		b.bar.Describe(message)
	}
}

// Finish completes the bar and prints a final message. Takes a plain
// string, unlike ivoronin-dupedog's Finish(fmt.Stringer), to match the
// rest of this package's string-based contract.
func (b *Bar) Finish(message string) {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	fmt.Fprintln(os.Stderr, "done: "+message)
}
