// Package crashloop records initialization failures across process restarts
// and detects when the bridge is stuck in a restart loop.
//
// A supervisor (systemd, container runtime) restarts the bridge when it
// exits. If startup keeps failing the restarts become a loop; an operator
// only sees that if someone counts. The Manager appends a durable event for
// each significant failure and reports a loop when too many relevant events
// fall inside a trailing time window.
//
// Detection only reports. It never halts or delays the process; that policy
// belongs to the supervisor.
//
// Every operation reads the persisted log rather than an in-memory cache,
// because the whole point is observing crashes from earlier process
// instances.
package crashloop
