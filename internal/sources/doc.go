// Package sources provides interfaces and implementations for
// retrieving color schemes from external collections.
//
// The package defines the Handler interface which abstracts the
// process of validating a source configuration, downloading the
// source's documents, and converting them into scheme candidates for
// the merge registry.
//
// Current implementations:
//   - tomlRepoHandler: repositories publishing standalone TOML scheme
//     documents, one scheme per file
//   - base16Handler: base16 collection repositories, in both the
//     current and the legacy document shape
//   - goghHandler: the Gogh theme list, a single JSON document naming
//     every theme
//   - iterm2Handler: iTerm2 color preset collections in property list
//     form
//   - sexyHandler: terminal.sexy export collections
//
// Repository sources are downloaded as tarball snapshots and walked in
// archive order. A document that fails to parse is recorded in the
// FetchResult and skipped, so one broken file in a collection never
// blocks the rest.
//
// The package provides a factory for creating the appropriate handler
// from the source type configuration.
package sources
