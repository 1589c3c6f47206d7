// Package poller tracks remote pipeline sessions until they finish.
//
// A Poller runs at most one status loop at a time. Start and SwitchTo return a
// Handle for the new loop after synchronously invalidating the previous one,
// so a slow response for an old session can never overwrite the snapshot of
// the current one. A loop ends on its own when the session reports completed
// or error, when a fetch fails, or when Stop is called.
//
// Transport failures end the loop by default. WithTransportRetries lets a
// number of consecutive transport failures pass before giving up; an error
// reported by the service itself always ends the loop.
package poller
