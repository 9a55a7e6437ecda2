// Package qs converts between flat percent-encoded query-string text and
// nested map/list structures, in both directions, with bracket and dot
// nested-key syntax (a[b][0]=c, a.b=c).
//
// The package reproduces the behavior of the widely-ported reference
// algorithm so that independent implementations stay byte-for-byte
// interoperable: the same delimiter splitting, key-path tokenization,
// merge semantics with list-to-map promotion, percent/charset codecs,
// and list-format strategies.
//
// ARCHITECTURE:
//
// Everything operates on a closed Value sum type. Foreign Go containers
// (map[string]any, []any, arbitrary maps and slices) are normalized once at
// the boundary into Value; the algorithms branch only on that union.
//
// Decode pipeline:
//  1. Split raw text on the delimiter into parameter tokens.
//  2. Accumulate tokens into an ordered flat map, applying the charset
//     sentinel and the duplicate-key policy.
//  3. Tokenize each decoded key into path segments, build a single-path
//     Value bottom-up, and merge it into the root.
//  4. Compact: strip Undefined entries and canonicalize promoted maps.
//
// Encode pipeline: an iterative depth-first walk over the Value tree that
// applies filters, sort order, and a list-format strategy (indices,
// brackets, repeat, comma), then percent-encodes keys and values.
//
// Cycle handling is deliberately asymmetric: Decode and the merge engine
// tolerate self-referential input and preserve identity, while Encode
// rejects cycles with a CYCLIC_REFERENCE error, because a cyclic structure
// has no finite text form.
//
// The package is fully synchronous and allocation-bounded: no operation
// suspends, options are read-only for the duration of a call, and the
// decoder builder, compaction pass, and encoder walk all use explicit work
// stacks so that deeply nested hostile input cannot overflow the goroutine
// stack.
package qs
