package secureelement

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/brocaar/lorawan"
)

type ElementTestSuite struct {
	suite.Suite

	engine   *fakeEngine
	hardware *fakeHardware
	element  *SecureElement
}

func (ts *ElementTestSuite) SetupTest() {
	assert := require.New(ts.T())

	ts.engine = &fakeEngine{}
	ts.hardware = &fakeHardware{ID: lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8}}

	var err error
	ts.element, err = New(ts.engine, ts.hardware)
	assert.NoError(err)
}

func (ts *ElementTestSuite) TestComputeAESCMACWithMICBlock() {
	assert := require.New(ts.T())

	micBlock := make([]byte, 16)
	for i := range micBlock {
		micBlock[i] = byte(i)
	}
	buffer := []byte{10, 20, 30}

	ts.engine.CMACMIC = lorawan.MIC{1, 2, 3, 4}

	mic, err := ts.element.ComputeAESCMAC(micBlock, buffer, FNwkSIntKey)
	assert.NoError(err)
	assert.Equal(lorawan.MIC{1, 2, 3, 4}, mic)

	// the engine sees the concatenation micBlock | buffer
	calls := ts.engine.callsTo("ComputeAESCMAC")
	assert.Len(calls, 1)
	assert.Equal(SlotFNwkSIntKey, calls[0].Slot)
	assert.Equal(append(append([]byte{}, micBlock...), buffer...), calls[0].Payload)
}

func (ts *ElementTestSuite) TestComputeAESCMACWithoutMICBlock() {
	assert := require.New(ts.T())

	buffer := []byte{10, 20, 30}

	_, err := ts.element.ComputeAESCMAC(nil, buffer, NwkSEncKey)
	assert.NoError(err)

	calls := ts.engine.callsTo("ComputeAESCMAC")
	assert.Len(calls, 1)
	assert.Equal(buffer, calls[0].Payload)
}

func (ts *ElementTestSuite) TestComputeAESCMACBoundaries() {
	assert := require.New(ts.T())

	micBlock := make([]byte, 16)

	// 240 + 16 hits the message ceiling exactly
	_, err := ts.element.ComputeAESCMAC(micBlock, make([]byte, 240), NwkKey)
	assert.NoError(err)

	// 241 + 16 exceeds it
	_, err = ts.element.ComputeAESCMAC(micBlock, make([]byte, 241), NwkKey)
	assert.Equal(ErrBufferOverflow, err)

	// a MIC block must be exactly 16 bytes
	_, err = ts.element.ComputeAESCMAC(make([]byte, 15), make([]byte, 10), NwkKey)
	assert.Equal(ErrInvalidLength, err)

	// without a MIC block the full message ceiling is available
	_, err = ts.element.ComputeAESCMAC(nil, make([]byte, 256), NwkKey)
	assert.NoError(err)
	_, err = ts.element.ComputeAESCMAC(nil, make([]byte, 257), NwkKey)
	assert.Equal(ErrBufferOverflow, err)

	// the overflow checks happen before the engine is invoked
	assert.Len(ts.engine.callsTo("ComputeAESCMAC"), 2)
}

func (ts *ElementTestSuite) TestVerifyAESCMAC() {
	assert := require.New(ts.T())

	assert.Equal(ErrNilInput, ts.element.VerifyAESCMAC(nil, lorawan.MIC{}, SNwkSIntKey))
	assert.Len(ts.engine.Calls, 1) // RestoreFromNonVolatile only

	expected := lorawan.MIC{4, 3, 2, 1}
	assert.NoError(ts.element.VerifyAESCMAC([]byte{1, 2, 3}, expected, SNwkSIntKey))

	calls := ts.engine.callsTo("VerifyAESCMAC")
	assert.Len(calls, 1)
	assert.Equal(SlotSNwkSIntKey, calls[0].Slot)
	assert.Equal(expected, calls[0].Expected)

	// engine failures are forwarded
	ts.engine.VerifyErr = errors.New("mic mismatch")
	assert.Equal(ts.engine.VerifyErr, ts.element.VerifyAESCMAC([]byte{1, 2, 3}, expected, SNwkSIntKey))
}

func (ts *ElementTestSuite) TestAESEncrypt() {
	assert := require.New(ts.T())

	_, err := ts.element.AESEncrypt(nil, AppSKey)
	assert.Equal(ErrNilInput, err)

	ts.engine.EncryptOut = []byte{9, 9, 9}
	b, err := ts.element.AESEncrypt([]byte{1, 2, 3}, AppSKey)
	assert.NoError(err)
	assert.Equal([]byte{9, 9, 9}, b)

	calls := ts.engine.callsTo("AESEncrypt")
	assert.Len(calls, 1)
	assert.Equal(SlotAppSKey, calls[0].Slot)
}

func (ts *ElementTestSuite) TestDeriveAndStoreKey() {
	assert := require.New(ts.T())

	seed := make([]byte, 16)
	seed[0] = 0x01

	assert.Equal(ErrNilInput, ts.element.DeriveAndStoreKey(Version{Major: 1}, nil, NwkKey, FNwkSIntKey))
	assert.Equal(ErrInvalidLength, ts.element.DeriveAndStoreKey(Version{Major: 1}, seed[:10], NwkKey, FNwkSIntKey))

	assert.NoError(ts.element.DeriveAndStoreKey(Version{Major: 1}, seed, NwkKey, FNwkSIntKey))

	calls := ts.engine.callsTo("DeriveAndStoreKey")
	assert.Len(calls, 1)
	assert.Equal(SlotNwkKey, calls[0].Slot)
	assert.Equal(SlotFNwkSIntKey, calls[0].MICSlot)

	// persisted after a successful derivation
	assert.Len(ts.engine.callsTo("StoreToNonVolatile"), 1)
}

func (ts *ElementTestSuite) TestDeriveAndStoreKeyFailureSkipsPersist() {
	assert := require.New(ts.T())

	ts.engine.DeriveErr = errors.New("derive error")
	err := ts.element.DeriveAndStoreKey(Version{Major: 1}, make([]byte, 16), NwkKey, FNwkSIntKey)
	assert.Equal(ts.engine.DeriveErr, errors.Cause(err))

	assert.Len(ts.engine.callsTo("StoreToNonVolatile"), 0)
}

func (ts *ElementTestSuite) TestSetKey() {
	assert := require.New(ts.T())

	key := make([]byte, 16)
	key[15] = 0xaa

	assert.Equal(ErrNilInput, ts.element.SetKey(AppKey, nil))
	assert.Equal(ErrInvalidLength, ts.element.SetKey(AppKey, key[:5]))

	assert.NoError(ts.element.SetKey(AppKey, key))

	calls := ts.engine.callsTo("SetKey")
	assert.Len(calls, 1)
	assert.Equal(SlotAppKey, calls[0].Slot)
	assert.Equal(lorawan.AES128Key{15: 0xaa}, calls[0].Key)
	assert.Len(ts.engine.callsTo("DeriveAndStoreKey"), 0)
	assert.Len(ts.engine.callsTo("StoreToNonVolatile"), 1)
}

func (ts *ElementTestSuite) TestSetKeyMulticast() {
	assert := require.New(ts.T())

	wrapped := make([]byte, 16)
	wrapped[0] = 0x42

	for i, keyID := range []KeyIdentifier{McKey0, McKey1, McKey2, McKey3} {
		assert.NoError(ts.element.SetKey(keyID, wrapped))

		// multicast keys are unwrapped under the KE key, never stored raw
		calls := ts.engine.callsTo("DeriveAndStoreKey")
		assert.Len(calls, i+1)
		assert.Equal(SlotMcKEKey, calls[i].Slot)
		assert.Equal(SlotForKey(keyID), calls[i].MICSlot)
		assert.Equal(lorawan.AES128Key{0: 0x42}, calls[i].Seed)
	}

	assert.Len(ts.engine.callsTo("SetKey"), 0)
	assert.Len(ts.engine.callsTo("StoreToNonVolatile"), 4)
}

func (ts *ElementTestSuite) TestSetKeyMulticastFailureSkipsPersist() {
	assert := require.New(ts.T())

	ts.engine.DeriveErr = errors.New("derive error")
	err := ts.element.SetKey(McKey2, make([]byte, 16))
	assert.Equal(ts.engine.DeriveErr, errors.Cause(err))

	assert.Len(ts.engine.callsTo("StoreToNonVolatile"), 0)
}

func (ts *ElementTestSuite) TestSetKeyFailureSkipsPersist() {
	assert := require.New(ts.T())

	ts.engine.SetKeyErr = errors.New("set key error")
	err := ts.element.SetKey(AppKey, make([]byte, 16))
	assert.Equal(ts.engine.SetKeyErr, errors.Cause(err))

	assert.Len(ts.engine.callsTo("StoreToNonVolatile"), 0)
}

func (ts *ElementTestSuite) TestRandomNumber() {
	assert := require.New(ts.T())

	ts.hardware.Random = 123456789
	r, err := ts.element.RandomNumber()
	assert.NoError(err)
	assert.EqualValues(123456789, r)
}

func TestElement(t *testing.T) {
	suite.Run(t, new(ElementTestSuite))
}
