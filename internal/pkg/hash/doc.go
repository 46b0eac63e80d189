// Package hash provides keyed, one-way digests for short secrets.
//
// Digests are HMACs under a server-side key, so a six-digit code cannot be
// recovered by enumeration without that key. Output is deterministic and
// stored digests are compared for equality.
package hash
