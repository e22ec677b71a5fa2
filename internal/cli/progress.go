package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/contextindex/internal/indexer"
)

// cliProgress adapts indexer.ProgressFunc to a progressbar.ProgressBar,
// grounded on the teacher's CLIProgressReporter but collapsed to the
// single callback ProgressFunc expects instead of the teacher's
// multi-method reporter interface.
type cliProgress struct {
	quiet     bool
	fileBar   *progressbar.ProgressBar
	startTime time.Time
}

// newCLIProgress returns an indexer.ProgressFunc that renders a progress
// bar during PhaseProcessingFiles and logs the other phases, unless quiet
// suppresses all non-error output.
func newCLIProgress(quiet bool) indexer.ProgressFunc {
	c := &cliProgress{quiet: quiet, startTime: time.Now()}
	return c.onProgress
}

func (c *cliProgress) onProgress(phase indexer.ProgressPhase, current, total int) {
	if c.quiet {
		return
	}

	switch phase {
	case indexer.PhasePreparingCollection:
		log.Println("Preparing collection...")

	case indexer.PhaseScanningFiles:
		log.Println("Scanning files...")

	case indexer.PhaseProcessingFiles:
		if c.fileBar == nil {
			c.fileBar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Indexing files"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("files/s"),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		c.fileBar.Set(current)

	case indexer.PhaseIndexingComplete:
		if c.fileBar != nil {
			c.fileBar.Finish()
			c.fileBar = nil
		}
		fmt.Printf("✓ Indexing complete (%v)\n", time.Since(c.startTime).Round(time.Millisecond))
	}
}
