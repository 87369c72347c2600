package domain

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
)

type InstructionKind uint8

const (
	InstructionConfigure InstructionKind = 0
	InstructionConvert   InstructionKind = 1
)

func (k InstructionKind) String() string {
	switch k {
	case InstructionConfigure:
		return "configure"
	case InstructionConvert:
		return "convert"
	default:
		return "unknown"
	}
}

// Instruction is a decoded program instruction. QuotedAmount is only
// meaningful for InstructionConvert.
type Instruction struct {
	Kind         InstructionKind
	QuotedAmount int64
}

func NewConfigure() Instruction { return Instruction{Kind: InstructionConfigure} }

func NewConvert(quotedAmount int64) Instruction {
	return Instruction{Kind: InstructionConvert, QuotedAmount: quotedAmount}
}

// DecodeInstruction parses the tag-prefixed borsh payload. The whole buffer
// must be consumed.
func DecodeInstruction(data []byte) (Instruction, error) {
	dec := bin.NewBorshDecoder(data)
	tag, err := dec.ReadUint8()
	if err != nil {
		return Instruction{}, fmt.Errorf("%w: missing tag", ErrDecode)
	}
	var ix Instruction
	switch InstructionKind(tag) {
	case InstructionConfigure:
		ix = NewConfigure()
	case InstructionConvert:
		amount, err := dec.ReadInt64(binary.LittleEndian)
		if err != nil {
			return Instruction{}, fmt.Errorf("%w: truncated convert payload", ErrDecode)
		}
		ix = NewConvert(amount)
	default:
		return Instruction{}, fmt.Errorf("%w: unknown tag %d", ErrDecode, tag)
	}
	if dec.HasRemaining() {
		return Instruction{}, fmt.Errorf("%w: %d trailing bytes", ErrDecode, dec.Remaining())
	}
	return ix, nil
}

func (ix Instruction) Encode() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint8(uint8(ix.Kind)); err != nil {
		return nil, err
	}
	switch ix.Kind {
	case InstructionConfigure:
	case InstructionConvert:
		if err := enc.WriteInt64(ix.QuotedAmount, binary.LittleEndian); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unknown tag %d", ErrDecode, ix.Kind)
	}
	return buf.Bytes(), nil
}
