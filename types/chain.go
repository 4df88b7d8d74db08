package types

import (
	"encoding/json"
	"fmt"
)

// Chain identifies which tracked chain a proof or request refers to.
// The numeric values match the network ids used by the proof service.
type Chain uint64

const (
	ChainBeacon    Chain = 0
	ChainExecution Chain = 1
)

func (c Chain) String() string {
	switch c {
	case ChainBeacon:
		return "beacon"
	case ChainExecution:
		return "execution"
	default:
		return fmt.Sprintf("chain(%d)", uint64(c))
	}
}

// Valid reports whether the chain id is one of the tracked chains.
func (c Chain) Valid() bool {
	return c == ChainBeacon || c == ChainExecution
}

// HashingFunction selects the hash used for MMR construction.
// Keccak is the byte oriented hash used on the EVM side, Poseidon the
// field oriented hash used inside the proof system.
type HashingFunction uint8

const (
	HashingKeccak HashingFunction = iota
	HashingPoseidon
)

func (f HashingFunction) String() string {
	switch f {
	case HashingKeccak:
		return "keccak"
	case HashingPoseidon:
		return "poseidon"
	default:
		return fmt.Sprintf("hashing(%d)", uint8(f))
	}
}

// Valid reports whether the hashing function is supported.
func (f HashingFunction) Valid() bool {
	return f == HashingKeccak || f == HashingPoseidon
}

// ParseHashingFunction parses the wire representation used by the proof service.
func ParseHashingFunction(s string) (HashingFunction, error) {
	switch s {
	case "keccak":
		return HashingKeccak, nil
	case "poseidon":
		return HashingPoseidon, nil
	default:
		return 0, fmt.Errorf("unknown hashing function %q", s)
	}
}

func (f HashingFunction) MarshalJSON() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown hashing function %d", uint8(f))
	}
	return json.Marshal(f.String())
}

func (f *HashingFunction) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	fn, err := ParseHashingFunction(s)
	if err != nil {
		return err
	}
	*f = fn
	return nil
}
