// Package config provides environment-driven Postgres connection
// configuration for tests and the demo tooling, for all three supported
// database access libraries.
package config
