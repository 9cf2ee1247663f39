// Package status keeps the last outcome of every composite in memory and
// serves it over a small JSON API.
//
// Store is keyed by composite name. The runner calls Record after every run;
// entries not updated within the TTL are hidden from reads and removed by the
// background Run loop.
//
// Routes (GET only, 405 otherwise):
//
//	/api/v1/status             composite, ok and failing counts
//	/api/v1/composites         every live composite
//	/api/v1/composites/{name}  one composite, 404 if unknown or stale
//	/api/v1/snapshot           counts and every composite in one document
//
// Hub serves the same snapshot over a WebSocket at /api/v1/stream: once on
// connect, then on every tick.
package status
