// Package contracts defines the wire types and error taxonomy shared by the
// HopperTalk components.
//
// The package holds:
//   - Envelope: the JSON payload carried over the broker for every chat message
//   - The sentinel errors every store and messaging operation classifies its
//     failures with (unknown user, not a contact, transport unavailable, ...)
//
// The envelope schema is fixed: decoding rejects payloads with missing or
// mistyped fields instead of propagating partially populated values.
package contracts
