// Package remote bridges eventwire producers and listeners across a process
// boundary through a shared naming registry.
//
// A registry is an HTTP service in which producers and listeners bind
// themselves under chosen names. LocateOrCreate connects to a registry,
// creating one on first use; creation is permitted only on the local host.
// A producer bound with ServeProducer accepts addListener and fire calls
// over the network, inserting remote listener proxies into its ordinary
// subscription registry; a listener served with ServeListener receives
// notifications over the network.
//
// Identity across the boundary is NAME-based: a kind crosses the wire as its
// name string and is mapped back to the locally registered *event.Kind on
// the receiving side. Unrelated kinds sharing a name in two processes will
// therefore collide; in-process instance identity is unchanged. Payload
// values travel as JSON, so numeric values arrive as float64 and structured
// values as map[string]any; schemas for remoted kinds should declare types
// accordingly.
//
// All delivery semantics of the local producer are preserved: validation,
// snapshotting, registration order, and per-listener failure isolation. A
// network failure while notifying one remote listener fails that listener's
// delivery only, never the producer or the rest of the snapshot.
package remote
