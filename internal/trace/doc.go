// Package trace encodes simulation frames and grids deterministically.
//
// MarshalCanonical produces sorted-key JSON without HTML escaping, with
// NFC-normalized strings and no floats, so identical values always encode to
// identical bytes. Fingerprint hashes a grid's canonical encoding with a
// domain prefix, giving a stable identity for "this grid, in this state".
//
// Golden trace files and the determinism checks in the scenario harness are
// built on these two functions.
package trace
