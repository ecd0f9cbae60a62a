// Package messaging publishes and consumes domain events through a broker
// chosen by configuration: NATS, NSQ, or an in-process local bus.
package messaging
