// Package messaging publishes and consumes broker messages behind one small
// interface so use cases never import a broker client directly.
//
// Drivers: NATS, Kafka, NSQ, Google Pub/Sub and an in-process memory broker
// used for single-node deployments and tests. Every driver routes received
// messages through the same worker dispatcher, which recovers handler panics
// and settles the message (ack on success, nack on error) when auto-ack is on.
package messaging
