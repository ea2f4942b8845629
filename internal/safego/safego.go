// Package safego launches background goroutines that cannot crash the
// process.
package safego

import "log/slog"

// Go runs fn in a new goroutine.  A panic inside fn is recovered and
// logged with the given name.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "task", name, "panic", r)
			}
		}()
		fn()
	}()
}
