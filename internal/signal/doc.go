// Package signal turns raw anonymous votes for one event into display-ready
// crowd signals and warning banners. Everything here is a pure function over
// in-memory input: no I/O, no shared state, safe for concurrent use.
package signal
