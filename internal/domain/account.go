package domain

// Account is the per-invocation view of one account handed to the processor.
// Data aliases the storage buffer; writes to it are persisted by the host
// only when the invocation succeeds.
type Account struct {
	Key      Identity
	IsSigner bool
	Lamports uint64
	Data     []byte
}

// Clone returns a copy whose Data does not alias the receiver's.
func (a Account) Clone() Account {
	out := a
	if a.Data != nil {
		out.Data = append([]byte(nil), a.Data...)
	}
	return out
}
