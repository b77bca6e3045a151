// Package memory provides in-process implementations of the store interfaces.
// It backs the CLI's --memory mode and the service tests; data lives only as
// long as the Store value.
package memory
