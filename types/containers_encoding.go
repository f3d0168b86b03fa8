package types

import (
	ssz "github.com/ferranbt/fastssz"
)

// MerkleRoot runs fn against a pooled hasher and returns the resulting root.
func MerkleRoot(fn func(hh ssz.HashWalker) error) ([32]byte, error) {
	hh := ssz.DefaultHasherPool.Get()
	defer ssz.DefaultHasherPool.Put(hh)
	if err := fn(hh); err != nil {
		return [32]byte{}, err
	}
	return hh.HashRoot()
}

// HashTreeRoot ssz hashes the Checkpoint object
func (c *Checkpoint) HashTreeRoot() ([32]byte, error) {
	return MerkleRoot(c.HashTreeRootWith)
}

// HashTreeRootWith ssz hashes the Checkpoint object with a hasher
func (c *Checkpoint) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutUint64(uint64(c.Epoch))
	hh.PutBytes(c.Root[:])
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the Validator object
func (v *Validator) HashTreeRoot() ([32]byte, error) {
	return MerkleRoot(v.HashTreeRootWith)
}

// HashTreeRootWith ssz hashes the Validator object with a hasher
func (v *Validator) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutBytes(v.Pubkey[:])
	hh.PutBytes(v.WithdrawalCredentials[:])
	hh.PutUint64(uint64(v.EffectiveBalance))
	hh.PutBool(v.Slashed)
	hh.PutUint64(uint64(v.ActivationEligibilityEpoch))
	hh.PutUint64(uint64(v.ActivationEpoch))
	hh.PutUint64(uint64(v.ExitEpoch))
	hh.PutUint64(uint64(v.WithdrawableEpoch))
	hh.Merkleize(indx)
	return nil
}

// HashTreeRoot ssz hashes the IndexedDepositData object
func (d *IndexedDepositData) HashTreeRoot() ([32]byte, error) {
	return MerkleRoot(d.HashTreeRootWith)
}

// HashTreeRootWith ssz hashes the IndexedDepositData object with a hasher
func (d *IndexedDepositData) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutBytes(d.Pubkey[:])
	hh.PutBytes(d.WithdrawalCredentials[:])
	hh.PutUint64(uint64(d.Amount))
	hh.PutUint64(d.Index)
	hh.PutUint64(uint64(d.Epoch))
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the Withdrawal object
func (w *Withdrawal) MarshalSSZ() ([]byte, error) {
	return w.MarshalSSZTo(make([]byte, 0, w.SizeSSZ()))
}

// MarshalSSZTo ssz marshals the Withdrawal object to a target array
func (w *Withdrawal) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = ssz.MarshalUint64(dst, w.Index)
	dst = ssz.MarshalUint64(dst, uint64(w.ValidatorIndex))
	dst = append(dst, w.Address[:]...)
	dst = ssz.MarshalUint64(dst, uint64(w.Amount))
	return
}

// UnmarshalSSZ ssz unmarshals the Withdrawal object
func (w *Withdrawal) UnmarshalSSZ(buf []byte) error {
	if len(buf) != WithdrawalSize {
		return ssz.ErrSize
	}
	w.Index = ssz.UnmarshallUint64(buf[0:8])
	w.ValidatorIndex = ValidatorIndex(ssz.UnmarshallUint64(buf[8:16]))
	copy(w.Address[:], buf[16:36])
	w.Amount = Gwei(ssz.UnmarshallUint64(buf[36:44]))
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the Withdrawal object
func (w *Withdrawal) SizeSSZ() int { return WithdrawalSize }

// HashTreeRoot ssz hashes the Withdrawal object
func (w *Withdrawal) HashTreeRoot() ([32]byte, error) {
	return MerkleRoot(w.HashTreeRootWith)
}

// HashTreeRootWith ssz hashes the Withdrawal object with a hasher
func (w *Withdrawal) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutUint64(w.Index)
	hh.PutUint64(uint64(w.ValidatorIndex))
	hh.PutBytes(w.Address[:])
	hh.PutUint64(uint64(w.Amount))
	hh.Merkleize(indx)
	return nil
}

// MarshalSSZ ssz marshals the DepositReceipt object
func (r *DepositReceipt) MarshalSSZ() ([]byte, error) {
	return r.MarshalSSZTo(make([]byte, 0, r.SizeSSZ()))
}

// MarshalSSZTo ssz marshals the DepositReceipt object to a target array
func (r *DepositReceipt) MarshalSSZTo(buf []byte) (dst []byte, err error) {
	dst = buf
	dst = append(dst, r.Pubkey[:]...)
	dst = append(dst, r.WithdrawalCredentials[:]...)
	dst = ssz.MarshalUint64(dst, uint64(r.Amount))
	dst = append(dst, r.Signature[:]...)
	dst = ssz.MarshalUint64(dst, r.Index)
	return
}

// UnmarshalSSZ ssz unmarshals the DepositReceipt object
func (r *DepositReceipt) UnmarshalSSZ(buf []byte) error {
	if len(buf) != DepositReceiptSize {
		return ssz.ErrSize
	}
	copy(r.Pubkey[:], buf[0:48])
	copy(r.WithdrawalCredentials[:], buf[48:80])
	r.Amount = Gwei(ssz.UnmarshallUint64(buf[80:88]))
	copy(r.Signature[:], buf[88:184])
	r.Index = ssz.UnmarshallUint64(buf[184:192])
	return nil
}

// SizeSSZ returns the ssz encoded size in bytes for the DepositReceipt object
func (r *DepositReceipt) SizeSSZ() int { return DepositReceiptSize }

// HashTreeRoot ssz hashes the DepositReceipt object
func (r *DepositReceipt) HashTreeRoot() ([32]byte, error) {
	return MerkleRoot(r.HashTreeRootWith)
}

// HashTreeRootWith ssz hashes the DepositReceipt object with a hasher
func (r *DepositReceipt) HashTreeRootWith(hh ssz.HashWalker) error {
	indx := hh.Index()
	hh.PutBytes(r.Pubkey[:])
	hh.PutBytes(r.WithdrawalCredentials[:])
	hh.PutUint64(uint64(r.Amount))
	hh.PutBytes(r.Signature[:])
	hh.PutUint64(r.Index)
	hh.Merkleize(indx)
	return nil
}
