// Package canon provides canonical JSON encoding and domain-separated
// hashing for content-addressed identity.
//
// Two things are hashed in grammargen:
//   - grammar source files, so the change tracker can classify them as
//     added, modified, unchanged or removed between runs
//   - generation requests, so the run history can tell whether two runs
//     asked the generator for the same work
//
// Canonical JSON follows RFC 8785: object keys sorted by UTF-16 code
// units, no insignificant whitespace, no HTML escaping, and strings NFC
// normalized so that the same path spelled with different Unicode
// compositions hashes identically.
package canon
