package types

import "errors"

// Verification failures, grouped by origin. Structural errors are raised
// before any hashing, cryptographic errors mean a proof failed its defining
// check, consistency errors point at request construction or upstream data,
// and protocol errors mean the proof is understood to be valid but its
// declared shape is not supported by this verifier.
var (
	// Cryptographic.
	ErrInvalidValidityProof = errors.New("invalid validity proof")
	ErrInvalidMmrProof      = errors.New("invalid mmr proof")
	ErrInvalidMmrRoot       = errors.New("mmr root mismatch")
	ErrInvalidAccountProof  = errors.New("invalid account proof")
	ErrInvalidTxProof       = errors.New("invalid transaction proof")

	// Structural.
	ErrInvalidMmrTree    = errors.New("invalid mmr tree")
	ErrInvalidRlpDecode  = errors.New("invalid rlp encoding")
	ErrInvalidProofBatch = errors.New("invalid proof batch")

	// Consistency.
	ErrHeaderHashMismatch        = errors.New("header hash mismatch")
	ErrUntrustedMmrRoot          = errors.New("mmr root not attested by anchor")
	ErrStateRootMismatch         = errors.New("state root mismatch")
	ErrUnresolvedHeaderReference = errors.New("referenced header not in batch")
	ErrMixedHashingFunction      = errors.New("mixed hashing functions in batch")

	// Protocol version.
	ErrMalformedPublicOutput = errors.New("malformed public output")
	ErrUnsupportedChain      = errors.New("unsupported chain")
)
