package domain

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// ConfigRecordSize is the fixed width of the serialized record: one flag
// byte followed by the trusted price source key.
const ConfigRecordSize = 1 + IdentitySize

// ConfigRecord is the program configuration. TrustedPriceSource is only
// meaningful once Initialized is set, and Initialized never goes back to false.
type ConfigRecord struct {
	Initialized        bool
	TrustedPriceSource Identity
}

// LoadConfigRecord reads the record from the start of raw. Bytes past
// ConfigRecordSize are reserved and ignored.
func LoadConfigRecord(raw []byte) (ConfigRecord, error) {
	if len(raw) < ConfigRecordSize {
		return ConfigRecord{}, fmt.Errorf("%w: config record needs %d bytes, got %d", ErrDecode, ConfigRecordSize, len(raw))
	}
	dec := bin.NewBorshDecoder(raw[:ConfigRecordSize])
	flag, err := dec.ReadUint8()
	if err != nil {
		return ConfigRecord{}, fmt.Errorf("%w: config flag: %v", ErrDecode, err)
	}
	if flag > 1 {
		return ConfigRecord{}, fmt.Errorf("%w: config flag %d", ErrDecode, flag)
	}
	key, err := dec.ReadNBytes(IdentitySize)
	if err != nil {
		return ConfigRecord{}, fmt.Errorf("%w: config key: %v", ErrDecode, err)
	}
	return ConfigRecord{
		Initialized:        flag == 1,
		TrustedPriceSource: solana.PublicKeyFromBytes(key),
	}, nil
}

func (r ConfigRecord) Marshal() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, ConfigRecordSize))
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBool(r.Initialized); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(r.TrustedPriceSource[:], false); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Store writes exactly ConfigRecordSize bytes at the start of dst and leaves
// the rest of dst untouched.
func (r ConfigRecord) Store(dst []byte) error {
	if len(dst) < ConfigRecordSize {
		return fmt.Errorf("%w: config account needs %d bytes, got %d", ErrDecode, ConfigRecordSize, len(dst))
	}
	b, err := r.Marshal()
	if err != nil {
		return err
	}
	copy(dst[:ConfigRecordSize], b)
	return nil
}
