// Package helper provides shared helpers for integration tests: schema
// management, data seeding and assertion shortcuts for the lending tables.
package helper
