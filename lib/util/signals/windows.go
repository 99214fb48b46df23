//go:build windows
// +build windows

package signals

import (
	"os"
	"os/signal"
)

func init() {
	signal.Notify(sigChan, os.Interrupt)
}

// Handle dispatches signals until StopHandle is called.
func Handle() {
	for {
		sig, ok := <-sigChan
		if !ok {
			return
		}
		if sig == os.Interrupt {
			handleInterrupted()
		}
	}
}
