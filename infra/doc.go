// Package infra contains technical adapters such as the metrics sinks, the
// MQTT alert notifier and the zerolog logger. These packages depend only on
// the interfaces defined under core.
package infra
