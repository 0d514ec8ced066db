// Package core contains the flag notification domain: endpoint options, the
// webhook listener that turns flag lifecycle events into HTTP calls, and the
// errors it reports. Adapters depend on this package; core only depends on
// the transport package for the outbound HTTP contract.
package core
