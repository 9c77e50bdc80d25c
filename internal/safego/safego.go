// Package safego wraps goroutine launches so panics land in the injected
// logger before the process dies, instead of vanishing into whatever has
// swallowed stdout.
package safego

import (
	"log"
	"runtime/debug"
)

// Go runs fn on a new goroutine. A panic is logged with its stack and then
// re-raised so crashes stay loud.
func Go(logger *log.Logger, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Printf("PANIC: %v\n%s", r, debug.Stack())
				panic(r)
			}
		}()
		fn()
	}()
}
