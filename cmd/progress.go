package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bep/debounce"
)

// progressPrinter prints corpus progress at most once per quiet period, plus
// a final line when a stage completes. It follows one run per stage.
func progressPrinter(w io.Writer, quiet time.Duration) func(stage string, done, total int) {
	debounced := debounce.New(quiet)
	var mu sync.Mutex
	latest := map[string]int{}
	return func(stage string, done, total int) {
		mu.Lock()
		defer mu.Unlock()
		// workers report out of order
		if done <= latest[stage] {
			return
		}
		latest[stage] = done
		if done >= total {
			// drop any pending line
			debounced(func() {})
			fmt.Fprintf(w, "Processed %v of %v %v files\n", done, total, stage)
			return
		}
		debounced(func() {
			mu.Lock()
			defer mu.Unlock()
			if latest[stage] >= total {
				return
			}
			fmt.Fprintf(w, "Processing %v of %v %v files\n", done, total, stage)
		})
	}
}
