package secureelement

import (
	"github.com/brocaar/lorawan"
)

type engineCall struct {
	Method    string
	Slot      Slot
	MICSlot   Slot
	Version   uint8
	MICHeader []byte
	Payload   []byte
	Key       lorawan.AES128Key
	Seed      lorawan.AES128Key
	Expected  lorawan.MIC
}

// fakeEngine records every call and returns scripted results.
type fakeEngine struct {
	Calls []engineCall

	RestoreErr error
	StoreErr   error
	SetKeyErr  error
	CMACMIC    lorawan.MIC
	CMACErr    error
	VerifyErr  error
	EncryptOut []byte
	EncryptErr error
	DeriveErr  error

	// per-call scripts for ProcessJoinAccept
	JoinAcceptBodies [][]byte
	JoinAcceptErrs   []error

	joinAcceptCount int
}

func (e *fakeEngine) RestoreFromNonVolatile() error {
	e.Calls = append(e.Calls, engineCall{Method: "RestoreFromNonVolatile"})
	return e.RestoreErr
}

func (e *fakeEngine) StoreToNonVolatile() error {
	e.Calls = append(e.Calls, engineCall{Method: "StoreToNonVolatile"})
	return e.StoreErr
}

func (e *fakeEngine) SetKey(slot Slot, key lorawan.AES128Key) error {
	e.Calls = append(e.Calls, engineCall{Method: "SetKey", Slot: slot, Key: key})
	return e.SetKeyErr
}

func (e *fakeEngine) ComputeAESCMAC(slot Slot, b []byte) (lorawan.MIC, error) {
	payload := make([]byte, len(b))
	copy(payload, b)
	e.Calls = append(e.Calls, engineCall{Method: "ComputeAESCMAC", Slot: slot, Payload: payload})
	return e.CMACMIC, e.CMACErr
}

func (e *fakeEngine) VerifyAESCMAC(slot Slot, b []byte, expected lorawan.MIC) error {
	payload := make([]byte, len(b))
	copy(payload, b)
	e.Calls = append(e.Calls, engineCall{Method: "VerifyAESCMAC", Slot: slot, Payload: payload, Expected: expected})
	return e.VerifyErr
}

func (e *fakeEngine) AESEncrypt(slot Slot, b []byte) ([]byte, error) {
	payload := make([]byte, len(b))
	copy(payload, b)
	e.Calls = append(e.Calls, engineCall{Method: "AESEncrypt", Slot: slot, Payload: payload})
	return e.EncryptOut, e.EncryptErr
}

func (e *fakeEngine) DeriveAndStoreKey(rootSlot, targetSlot Slot, seed lorawan.AES128Key) error {
	e.Calls = append(e.Calls, engineCall{Method: "DeriveAndStoreKey", Slot: rootSlot, MICSlot: targetSlot, Seed: seed})
	return e.DeriveErr
}

func (e *fakeEngine) ProcessJoinAccept(encSlot, micSlot Slot, version uint8, micHeader, encBody, decBody []byte) error {
	hdr := make([]byte, len(micHeader))
	copy(hdr, micHeader)
	payload := make([]byte, len(encBody))
	copy(payload, encBody)
	e.Calls = append(e.Calls, engineCall{
		Method:    "ProcessJoinAccept",
		Slot:      encSlot,
		MICSlot:   micSlot,
		Version:   version,
		MICHeader: hdr,
		Payload:   payload,
	})

	i := e.joinAcceptCount
	e.joinAcceptCount++

	if i < len(e.JoinAcceptErrs) && e.JoinAcceptErrs[i] != nil {
		return e.JoinAcceptErrs[i]
	}
	if i < len(e.JoinAcceptBodies) {
		copy(decBody, e.JoinAcceptBodies[i])
	}
	return nil
}

func (e *fakeEngine) callsTo(method string) []engineCall {
	var out []engineCall
	for _, c := range e.Calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// fakeHardware returns scripted values.
type fakeHardware struct {
	ID        lorawan.EUI64
	IDErr     error
	IDCalls   int
	Random    uint32
	RandomErr error
}

func (h *fakeHardware) UniqueID() (lorawan.EUI64, error) {
	h.IDCalls++
	return h.ID, h.IDErr
}

func (h *fakeHardware) RandomNumber() (uint32, error) {
	return h.Random, h.RandomErr
}

// countingNotifier counts context change notifications.
type countingNotifier struct {
	Count int
}

func (n *countingNotifier) SecureElementContextChanged() {
	n.Count++
}
