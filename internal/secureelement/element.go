package secureelement

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan"
)

const (
	// micBlockSize defines the size of the CMAC/AES MIC block B0.
	micBlockSize = 16

	// maxMessageSize defines the maximum size of a message that can be
	// handled by the crypto operations, the MIC block included.
	maxMessageSize = 256

	// cryptoBufferSize defines the capacity of the scratch buffer used
	// for MIC-block concatenation.
	cryptoBufferSize = maxMessageSize + micBlockSize

	// maxJoinAcceptSize defines the maximum size of a join-accept frame:
	// MHDR(1) + JoinNonce(3) + NetID(3) + DevAddr(4) + DLSettings(1) +
	// RxDelay(1) + CFList(16) + MIC(4).
	maxJoinAcceptSize = 33
)

// Version identifies the LoRaWAN protocol version in use by the MAC layer.
type Version struct {
	Major uint8
	Minor uint8
}

// SecureElement exposes the LoRaWAN crypto operations against a crypto
// engine. It is not safe for concurrent use; the caller must serialize all
// invocations.
type SecureElement struct {
	engine   Engine
	hardware Hardware
	notifier ChangeNotifier
	ctx      Context

	lorawan11 bool
}

// Option is the interface for secure-element options.
type Option func(*SecureElement)

// WithChangeNotifier sets the context change notifier.
func WithChangeNotifier(n ChangeNotifier) Option {
	return func(s *SecureElement) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithLoRaWAN11 enables or disables the LoRaWAN 1.1.x join-accept trial.
// It is enabled by default.
func WithLoRaWAN11(enabled bool) Option {
	return func(s *SecureElement) {
		s.lorawan11 = enabled
	}
}

// WithIdentity sets the provisioned identity defaults.
func WithIdentity(devEUI, joinEUI lorawan.EUI64, pin [PinSize]byte) Option {
	return func(s *SecureElement) {
		s.ctx.DevEUI = devEUI
		s.ctx.JoinEUI = joinEUI
		s.ctx.Pin = pin
	}
}

// New creates a new secure element on top of the given engine and hardware.
// The engine key table is restored from non-volatile storage, a zero DevEUI
// is filled in from the hardware unique device ID and the change notifier is
// invoked once.
func New(engine Engine, hardware Hardware, opts ...Option) (*SecureElement, error) {
	s := &SecureElement{
		engine:    engine,
		hardware:  hardware,
		notifier:  nopNotifier{},
		lorawan11: true,
	}
	for _, o := range opts {
		o(s)
	}

	if err := engine.RestoreFromNonVolatile(); err != nil {
		return nil, errors.Wrap(err, "restore non-volatile state error")
	}

	if s.ctx.DevEUI == (lorawan.EUI64{}) {
		devEUI, err := hardware.UniqueID()
		if err != nil {
			return nil, errors.Wrap(err, "get unique device id error")
		}
		s.ctx.DevEUI = devEUI
	}

	s.notifier.SecureElementContextChanged()

	log.WithFields(log.Fields{
		"dev_eui":  s.ctx.DevEUI,
		"join_eui": s.ctx.JoinEUI,
	}).Info("secure-element: initialized")

	return s, nil
}

// ComputeAESCMAC computes the AES-CMAC over the given buffer using the key
// referenced by keyID. When micBlock is given (it must be exactly 16 bytes),
// the CMAC is computed over the concatenation of the MIC block and the
// buffer. The combined message may not exceed the 256-byte message ceiling.
func (s *SecureElement) ComputeAESCMAC(micBlock, buffer []byte, keyID KeyIdentifier) (lorawan.MIC, error) {
	var mic lorawan.MIC

	size := len(buffer)
	if micBlock != nil {
		if len(micBlock) != micBlockSize {
			return mic, ErrInvalidLength
		}
		size += micBlockSize
	}
	if size > maxMessageSize {
		return mic, ErrBufferOverflow
	}

	msg := buffer
	if micBlock != nil {
		b := make([]byte, 0, cryptoBufferSize)
		b = append(b, micBlock...)
		b = append(b, buffer...)
		msg = b
	}

	mic, err := s.engine.ComputeAESCMAC(SlotForKey(keyID), msg)
	if err != nil {
		return mic, errors.Wrap(err, "compute aes-cmac error")
	}
	return mic, nil
}

// VerifyAESCMAC verifies the expected MIC against the AES-CMAC over the
// given buffer, using the key referenced by keyID. The comparison is
// performed by the engine.
func (s *SecureElement) VerifyAESCMAC(buffer []byte, expected lorawan.MIC, keyID KeyIdentifier) error {
	if buffer == nil {
		return ErrNilInput
	}
	return s.engine.VerifyAESCMAC(SlotForKey(keyID), buffer, expected)
}

// AESEncrypt encrypts the given buffer with the key referenced by keyID.
func (s *SecureElement) AESEncrypt(buffer []byte, keyID KeyIdentifier) ([]byte, error) {
	if buffer == nil {
		return nil, ErrNilInput
	}
	b, err := s.engine.AESEncrypt(SlotForKey(keyID), buffer)
	if err != nil {
		return nil, errors.Wrap(err, "aes encrypt error")
	}
	return b, nil
}

// DeriveAndStoreKey derives the key referenced by targetKeyID from the key
// referenced by rootKeyID and the given 16-byte seed, and persists the
// engine key table. Persistence is skipped when the derivation fails.
func (s *SecureElement) DeriveAndStoreKey(version Version, seed []byte, rootKeyID, targetKeyID KeyIdentifier) error {
	if seed == nil {
		return ErrNilInput
	}
	var seedBlock lorawan.AES128Key
	if len(seed) != len(seedBlock) {
		return ErrInvalidLength
	}
	copy(seedBlock[:], seed)

	if err := s.engine.DeriveAndStoreKey(SlotForKey(rootKeyID), SlotForKey(targetKeyID), seedBlock); err != nil {
		return errors.Wrap(err, "derive key error")
	}

	log.WithFields(log.Fields{
		"root_key_id":   rootKeyID,
		"target_key_id": targetKeyID,
		"version_minor": version.Minor,
	}).Debug("secure-element: key derived")

	if err := s.engine.StoreToNonVolatile(); err != nil {
		return errors.Wrap(err, "store non-volatile state error")
	}
	return nil
}

// SetKey stores the given key under the slot referenced by keyID and
// persists the engine key table. For the four multicast group keys the
// supplied bytes are wrapped: they are first derived under the multicast
// key-encryption key before being stored. Persistence is skipped when the
// store or derivation fails.
func (s *SecureElement) SetKey(keyID KeyIdentifier, key []byte) error {
	if key == nil {
		return ErrNilInput
	}
	var k lorawan.AES128Key
	if len(key) != len(k) {
		return ErrInvalidLength
	}
	copy(k[:], key)

	switch keyID {
	case McKey0, McKey1, McKey2, McKey3:
		if err := s.engine.DeriveAndStoreKey(SlotForKey(McKEKey), SlotForKey(keyID), k); err != nil {
			return errors.Wrap(err, "derive multicast key error")
		}
	default:
		if err := s.engine.SetKey(SlotForKey(keyID), k); err != nil {
			return errors.Wrap(err, "set key error")
		}
	}

	log.WithFields(log.Fields{
		"key_id": keyID,
		"slot":   SlotForKey(keyID),
	}).Debug("secure-element: key stored")

	if err := s.engine.StoreToNonVolatile(); err != nil {
		return errors.Wrap(err, "store non-volatile state error")
	}
	return nil
}

// RandomNumber returns a random number from the hardware entropy source.
func (s *SecureElement) RandomNumber() (uint32, error) {
	return s.hardware.RandomNumber()
}
