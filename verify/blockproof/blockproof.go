// Package blockproof validates the succinct validity proof of an anchor
// block and decodes the public outputs it attests to. A successful
// verification is the sole way a TrustedBlock comes into existence; every
// downstream check in the verification chain hangs off the MMR roots
// returned here.
package blockproof

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	"github.com/ethpandaops/herald/types"
)

// System is the pluggable succinct proof primitive. Implementations verify
// the proof cryptographically and, on success, decode its public outputs
// into a TrustedBlock. Verification is pure and CPU heavy; callers should
// verify at most once per batch and reuse the result.
type System interface {
	Verify(proof *types.ValidityProof) (*types.TrustedBlock, error)
}

// Groth16System verifies anchor block proofs with the groth16 backend over
// BN254. The verifying key is pinned at construction time and never taken
// from the proof bundle.
type Groth16System struct {
	vk groth16.VerifyingKey
}

// NewGroth16System wraps a pinned verifying key.
func NewGroth16System(vk groth16.VerifyingKey) *Groth16System {
	return &Groth16System{vk: vk}
}

// LoadGroth16System reads the verifying key from r.
func LoadGroth16System(r io.Reader) (*Groth16System, error) {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("reading verifying key: %w", err)
	}
	return NewGroth16System(vk), nil
}

// LoadGroth16SystemFromFile reads the verifying key from a file.
func LoadGroth16SystemFromFile(path string) (*Groth16System, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadGroth16System(f)
}

// Verify checks the proof against the pinned verifying key and the public
// inputs carried in the bundle, then decodes the public output vector.
//
// A proof that does not parse or does not verify yields
// types.ErrInvalidValidityProof. A proof that verifies but whose public
// output does not match the expected layout yields
// types.ErrMalformedPublicOutput; the two demand different remediation.
func (s *Groth16System) Verify(proof *types.ValidityProof) (*types.TrustedBlock, error) {
	gproof := groth16.NewProof(ecc.BN254)
	if _, err := gproof.ReadFrom(bytes.NewReader(proof.Proof)); err != nil {
		return nil, fmt.Errorf("%w: proof decode: %v", types.ErrInvalidValidityProof, err)
	}

	public, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}
	if _, err := public.ReadFrom(bytes.NewReader(proof.PublicInputs)); err != nil {
		return nil, fmt.Errorf("%w: public input decode: %v", types.ErrMalformedPublicOutput, err)
	}

	if err := groth16.Verify(gproof, s.vk, public); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidValidityProof, err)
	}

	trusted, err := decodeOutputs(public)
	if err != nil {
		return nil, err
	}

	if trusted.Number() != proof.BlockNumber {
		return nil, fmt.Errorf("%w: proof attests anchor %d, bundle declares %d",
			types.ErrMalformedPublicOutput, trusted.Number(), proof.BlockNumber)
	}

	return trusted, nil
}
