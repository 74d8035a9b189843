// Package infra contains the adapters behind the core interfaces: the
// zerolog run logger, metrics sinks, the Sentry monitor, the MQTT broker
// connection and the SQLite per-vehicle store.
package infra
