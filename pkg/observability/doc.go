/*
Package observability turns engine lifecycle hooks into structured logs and
Prometheus metrics.

Both are plain domain.LifecycleHooks values, so they can be merged with each
other and with user hooks before being handed to the engine.
*/
package observability
