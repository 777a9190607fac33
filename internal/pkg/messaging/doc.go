// Package messaging provides a broker-agnostic publishing contract.
//
// This service only emits events (the notification service consumes them),
// so the contract covers publishing; implementations can wrap NATS or any
// other messaging system.
package messaging
