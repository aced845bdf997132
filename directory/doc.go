// Package directory implements the durable stores behind HopperTalk: a
// JSON-file user directory enforcing display-name uniqueness, and a
// JSON-file append log of delivered messages keyed by destination queue.
//
// Every operation reads the backing file fresh, so lookups always reflect
// the current directory rather than a cached snapshot. Mutations rewrite
// the whole file under a per-store mutex; concurrent mutation from
// multiple processes is not coordinated.
package directory
