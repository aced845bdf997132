// Package rabbitmq wraps the AMQP client behind the two access patterns
// HopperTalk uses: a publisher that opens a fresh connection per publish and
// lets it drain for a short grace period, and a consumer that holds one
// long-lived connection for the lifetime of a subscription.
//
// The chat exchange is declared per call site: the publish path declares it
// as a topic exchange, the consume path as direct with a key_<queue>
// binding, matching the broker topology the system has always used.
package rabbitmq
