// Package integration provides end to end tests for the schemesync
// pipeline. These tests run complete catalog syncs against a local
// origin server covering every source format, the persistent fetch
// cache, and the published output files.
package integration
