// Package messaging implements the HopperTalk core: identity sessions,
// the contact ledger gating who may message whom, the router that maps a
// sender/recipient pair to a transport destination, and the consumer loop
// that reconciles persisted history with live delivery.
//
// The package depends on narrow interfaces for its collaborators (directory
// store, history store, transport) so each piece can be exercised without a
// running broker.
package messaging
