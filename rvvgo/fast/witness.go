package fast

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// witnessHeaderLen is vlen (8 bytes), register count and widen mode.
const witnessHeaderLen = 8 + 1 + 1

// StateWitness is the canonical byte encoding of a register file.
type StateWitness []byte

func (v *VRF) EncodeWitness() StateWitness {
	out := make([]byte, 0, witnessHeaderLen+len(v.Regs)*int(v.VLEN/8))
	out = binary.BigEndian.AppendUint64(out, v.VLEN)
	out = append(out, uint8(len(v.Regs)), uint8(v.Widen))
	for _, r := range v.Regs {
		out = append(out, r...)
	}
	return out
}

// StateHash commits to the full register file contents.
// Two runs of the same sequence from the same seed must produce the same hash.
func (wit StateWitness) StateHash() (common.Hash, error) {
	if len(wit) < witnessHeaderLen {
		return common.Hash{}, fmt.Errorf("invalid witness length: %d", len(wit))
	}
	vlen := binary.BigEndian.Uint64(wit[:8])
	numRegs := uint64(wit[8])
	if expected := witnessHeaderLen + numRegs*(vlen/8); uint64(len(wit)) != expected {
		return common.Hash{}, fmt.Errorf("invalid witness length: expected %d, got %d", expected, len(wit))
	}
	return crypto.Keccak256Hash(wit), nil
}

// StateHash is EncodeWitness().StateHash() for a well-formed VRF.
func (v *VRF) StateHash() common.Hash {
	h, err := v.EncodeWitness().StateHash()
	if err != nil {
		panic(err)
	}
	return h
}
