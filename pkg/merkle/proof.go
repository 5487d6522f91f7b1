package merkle

import (
	"github.com/signia-project/signia/pkg/errs"
	"github.com/signia-project/signia/pkg/hashing"
)

// HexStep is the hex-encoded wire form of a Step, matching §6.4's
// InclusionProof.siblings shape.
type HexStep struct {
	Side Side   `json:"side"`
	Hash string `json:"hash"`
}

// StepsToHex converts raw Steps to their wire (hex) form.
func StepsToHex(steps []Step) []HexStep {
	out := make([]HexStep, len(steps))
	for i, s := range steps {
		out[i] = HexStep{Side: s.Side, Hash: hashing.EncodeHex(s.Sibling[:])}
	}
	return out
}

// StepsFromHex parses the wire form back into raw Steps, returning
// InvalidHex if any sibling hash is malformed.
func StepsFromHex(hexSteps []HexStep) ([]Step, error) {
	out := make([]Step, len(hexSteps))
	for i, hs := range hexSteps {
		if hs.Side != SideLeft && hs.Side != SideRight {
			return nil, errs.New(errs.KindInvalidArgument, "merkle.proof.side.invalid", "inclusion proof side must be left or right")
		}
		raw, err := hashing.DecodeHex(hs.Hash)
		if err != nil || len(raw) != 32 {
			return nil, errs.New(errs.KindCryptographic, "merkle.proof.hash.invalid_hex", "inclusion proof sibling hash is not valid 64-char hex")
		}
		var sib [32]byte
		copy(sib[:], raw)
		out[i] = Step{Side: hs.Side, Sibling: sib}
	}
	return out, nil
}

// VerifyHex is Verify over hex-encoded inputs, as used at the wire boundary
// (ProofV1's leaves/root/siblings are all hex strings).
func VerifyHex(leafPayload []byte, hexSteps []HexStep, rootHex string) (bool, error) {
	rootRaw, err := hashing.DecodeHex(rootHex)
	if err != nil || len(rootRaw) != 32 {
		return false, errs.New(errs.KindCryptographic, "merkle.root.invalid_hex", "root is not valid 64-char hex")
	}
	var root [32]byte
	copy(root[:], rootRaw)

	steps, err := StepsFromHex(hexSteps)
	if err != nil {
		return false, err
	}

	return Verify(LeafHash(leafPayload), steps, root), nil
}
