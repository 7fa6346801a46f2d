// Package memory provides in-process session and document stores, used by tests
// and by single-process deployments that do not need durability.
package memory
