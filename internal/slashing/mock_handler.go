package slashing

import (
	"github.com/stretchr/testify/mock"

	"github.com/eigerco/slashing/internal/crypto"
	"github.com/eigerco/slashing/internal/historical"
)

func NewReportHandlerMock() *ReportHandlerMock {
	return &ReportHandlerMock{}
}

type ReportHandlerMock struct {
	mock.Mock
}

func (r *ReportHandlerMock) ReportOffence(reporters []crypto.AccountID, offence Offence) error {
	args := r.MethodCalled("ReportOffence", reporters, offence)
	return args.Error(0)
}

func (r *ReportHandlerMock) IsKnownOffence(kind OffenceKind, offenders []historical.IdentificationTuple, timeSlot TimeSlot) bool {
	args := r.MethodCalled("IsKnownOffence", kind, offenders, timeSlot)
	if fn, ok := args.Get(0).(func(OffenceKind, []historical.IdentificationTuple, TimeSlot) bool); ok {
		return fn(kind, offenders, timeSlot)
	}
	return args.Bool(0)
}

func (r *ReportHandlerMock) ReportLongevity() uint64 {
	args := r.MethodCalled("ReportLongevity")
	return args.Get(0).(uint64)
}

func (r *ReportHandlerMock) SubmitUnsignedSlashingReport(proof DisputeProof, keyOwnerProof historical.Proof) error {
	args := r.MethodCalled("SubmitUnsignedSlashingReport", proof, keyOwnerProof)
	return args.Error(0)
}

func NewKeyOwnerProofSystemMock() *KeyOwnerProofSystemMock {
	return &KeyOwnerProofSystemMock{}
}

type KeyOwnerProofSystemMock struct {
	mock.Mock
}

func (k *KeyOwnerProofSystemMock) CheckProof(keyType crypto.KeyTypeID, validator crypto.ValidatorID, proof historical.Proof) (historical.IdentificationTuple, bool) {
	args := k.MethodCalled("CheckProof", keyType, validator, proof)
	return args.Get(0).(historical.IdentificationTuple), args.Bool(1)
}

func NewIdentifierMock() *IdentifierMock {
	return &IdentifierMock{}
}

type IdentifierMock struct {
	mock.Mock
}

func (i *IdentifierMock) IdentificationOf(account crypto.AccountID) (historical.IdentificationTuple, bool) {
	args := i.MethodCalled("IdentificationOf", account)
	return args.Get(0).(historical.IdentificationTuple), args.Bool(1)
}

func NewTransactionSubmitterMock() *TransactionSubmitterMock {
	return &TransactionSubmitterMock{}
}

type TransactionSubmitterMock struct {
	mock.Mock
}

func (t *TransactionSubmitterMock) SubmitUnsigned(call *ReportDisputeLost) error {
	args := t.MethodCalled("SubmitUnsigned", call)
	return args.Error(0)
}
