// Package pyth decodes Pyth v2 price accounts.
package pyth

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"fxconvert-service/internal/application"
	"fxconvert-service/internal/domain"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	Magic              uint32 = 0xa1b2c3d4
	Version2           uint32 = 2
	AccountTypePrice   uint32 = 3
	PriceAccountSize          = 3312
	headerSize                = 240
	componentsSize            = PriceAccountSize - headerSize
	StatusUnknown      uint32 = 0
	StatusTrading      uint32 = 1
	StatusHalted       uint32 = 2
	StatusAuction      uint32 = 3
	PriceTypePrice     uint32 = 1
	rationalFieldBytes        = 24
)

// PriceAccount holds the header fields of a price account that matter for
// reading the current price. Publisher components are not decoded.
type PriceAccount struct {
	Exponent      int32
	NumComponents uint32
	LastSlot      uint64
	ValidSlot     uint64
	Timestamp     int64
	Product       solana.PublicKey
	Next          solana.PublicKey
	PrevSlot      uint64
	PrevPrice     int64
	PrevConf      uint64
	PrevTimestamp int64
	AggPrice      int64
	AggConf       uint64
	AggStatus     uint32
	AggPubSlot    uint64
}

// Snapshot picks the aggregate price while the feed is trading and the last
// trading price otherwise.
func (a PriceAccount) Snapshot() domain.PriceSnapshot {
	if a.AggStatus == StatusTrading {
		return domain.PriceSnapshot{Price: a.AggPrice, Conf: a.AggConf, Exponent: a.Exponent, PublishTime: a.Timestamp}
	}
	return domain.PriceSnapshot{Price: a.PrevPrice, Conf: a.PrevConf, Exponent: a.Exponent, PublishTime: a.PrevTimestamp}
}

// Decoder implements application.PriceFeedDecoder for Pyth accounts.
type Decoder struct{}

var _ application.PriceFeedDecoder = Decoder{}

func (Decoder) Decode(feed domain.Account) (domain.PriceSnapshot, error) {
	acc, err := ParsePriceAccount(feed.Data)
	if err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("%w: %s: %v", domain.ErrMalformedFeed, feed.Key, err)
	}
	return acc.Snapshot(), nil
}

func ParsePriceAccount(data []byte) (PriceAccount, error) {
	if len(data) < PriceAccountSize {
		return PriceAccount{}, fmt.Errorf("account is %d bytes, want %d", len(data), PriceAccountSize)
	}
	r := reader{dec: bin.NewBorshDecoder(data[:headerSize])}
	if magic := r.u32(); magic != Magic {
		return PriceAccount{}, fmt.Errorf("bad magic %#x", magic)
	}
	if ver := r.u32(); ver != Version2 {
		return PriceAccount{}, fmt.Errorf("unsupported version %d", ver)
	}
	if atype := r.u32(); atype != AccountTypePrice {
		return PriceAccount{}, fmt.Errorf("account type %d is not a price account", atype)
	}
	r.skip(8) // size, price type
	var a PriceAccount
	a.Exponent = r.i32()
	a.NumComponents = r.u32()
	r.skip(4) // num_qt
	a.LastSlot = r.u64()
	a.ValidSlot = r.u64()
	r.skip(2 * rationalFieldBytes) // ema price, ema conf
	a.Timestamp = r.i64()
	r.skip(8) // min_pub, drv2..4
	a.Product = r.key()
	a.Next = r.key()
	a.PrevSlot = r.u64()
	a.PrevPrice = r.i64()
	a.PrevConf = r.u64()
	a.PrevTimestamp = r.i64()
	a.AggPrice = r.i64()
	a.AggConf = r.u64()
	a.AggStatus = r.u32()
	r.skip(4) // corp_act
	a.AggPubSlot = r.u64()
	if r.err != nil {
		return PriceAccount{}, r.err
	}
	return a, nil
}

// Encode lays out a into a full-size price account with empty publisher
// components.
func (a PriceAccount) Encode() []byte {
	buf := bytes.NewBuffer(make([]byte, 0, PriceAccountSize))
	w := writer{enc: bin.NewBorshEncoder(buf)}
	w.u32(Magic)
	w.u32(Version2)
	w.u32(AccountTypePrice)
	w.u32(PriceAccountSize)
	w.u32(PriceTypePrice)
	w.i32(a.Exponent)
	w.u32(a.NumComponents)
	w.u32(a.NumComponents)
	w.u64(a.LastSlot)
	w.u64(a.ValidSlot)
	w.zero(2 * rationalFieldBytes)
	w.i64(a.Timestamp)
	w.zero(8)
	w.bytes(a.Product[:])
	w.bytes(a.Next[:])
	w.u64(a.PrevSlot)
	w.i64(a.PrevPrice)
	w.u64(a.PrevConf)
	w.i64(a.PrevTimestamp)
	w.i64(a.AggPrice)
	w.u64(a.AggConf)
	w.u32(a.AggStatus)
	w.u32(0)
	w.u64(a.AggPubSlot)
	w.zero(componentsSize)
	return buf.Bytes()
}

// reader keeps the first decode error so the layout reads as a flat list.
type reader struct {
	dec *bin.Decoder
	err error
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint32(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) i32() int32 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt32(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) u64() uint64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadUint64(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) i64() int64 {
	if r.err != nil {
		return 0
	}
	v, err := r.dec.ReadInt64(binary.LittleEndian)
	r.err = err
	return v
}

func (r *reader) key() solana.PublicKey {
	if r.err != nil {
		return solana.PublicKey{}
	}
	b, err := r.dec.ReadNBytes(solana.PublicKeyLength)
	r.err = err
	return solana.PublicKeyFromBytes(b)
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	_, r.err = r.dec.ReadNBytes(n)
}

type writer struct {
	enc *bin.Encoder
}

// Writes go to a bytes.Buffer and cannot fail.
func (w writer) u32(v uint32) { _ = w.enc.WriteUint32(v, binary.LittleEndian) }
func (w writer) i32(v int32) { _ = w.enc.WriteInt32(v, binary.LittleEndian) }
func (w writer) u64(v uint64) { _ = w.enc.WriteUint64(v, binary.LittleEndian) }
func (w writer) i64(v int64)  { _ = w.enc.WriteInt64(v, binary.LittleEndian) }
func (w writer) bytes(b []byte) { _ = w.enc.WriteBytes(b, false) }
func (w writer) zero(n int) { _ = w.enc.WriteBytes(make([]byte, n), false) }
