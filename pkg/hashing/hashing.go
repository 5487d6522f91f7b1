// Package hashing implements the raw and domain-separated SHA-256 primitives
// described in the specification's §4.B. Every hash SIGNIA computes — Merkle
// leaves and nodes, schema/manifest/proof digests, object store ids — goes
// through one of these two functions, so a single place controls the exact
// byte layout of every domain separator.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
)

// Label is a fixed domain-separation tag. The specification's §4.B/§6.6
// locks these five labels as part of the external wire format: changing a
// single byte of a label changes every hash that uses it.
type Label string

const (
	LabelSchema     Label = "signia.v1.schema"
	LabelManifest   Label = "signia.v1.manifest"
	LabelProof      Label = "signia.v1.proof"
	LabelMerkleLeaf Label = "signia.v1.merkle.leaf"
	LabelMerkleNode Label = "signia.v1.merkle.node"
)

// Sum256 returns the raw 32-byte SHA-256 digest of data.
func Sum256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashHex returns the lowercase 64-character hex digest of data's SHA-256
// sum, per §4.B.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DomainSep computes sha256(label || bytes), per §4.B's domain-separation
// formula. It returns the raw 32-byte digest so callers that feed the result
// into further hashing (e.g. Merkle node construction) avoid a redundant
// hex round-trip.
func DomainSep(label Label, data []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(label))
	h.Write(data)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// DomainSepHex is DomainSep with the result hex-encoded.
func DomainSepHex(label Label, data []byte) string {
	sum := DomainSep(label, data)
	return hex.EncodeToString(sum[:])
}

// DecodeHex decodes a hex digest into its raw bytes. On malformed input
// (odd length or non-hex characters) it returns encoding/hex's own error,
// not a typed *errs.Error; callers needing a typed InvalidHex error wrap it
// themselves. It does not check the decoded length.
func DecodeHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// EncodeHex lowercases-hex-encodes raw bytes.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}
