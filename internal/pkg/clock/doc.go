// Package clock provides a tiny time abstraction.
//
// Expiry logic depends on the Clocker interface instead of calling time.Now()
// directly. Production wiring uses TimeClocker; tests use Fake and move time
// forward explicitly with Advance or Set.
package clock
