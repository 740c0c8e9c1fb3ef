// Package softengine implements the secure-element crypto engine in
// software. It keeps the key table in memory and persists it through a
// Store, with the key material wrapped under a key-encryption key. It is
// the counterpart of an LR1110-class hardware engine for hosts without a
// crypto peripheral.
package softengine

import (
	"crypto/aes"
	"crypto/subtle"

	"github.com/jacobsa/crypto/cmac"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan"

	"github.com/brocaar/chirpstack-secure-element/internal/secureelement"
)

// Errors reported by the software engine.
var (
	// ErrInvalidSlot is returned when a slot index is outside the key
	// table.
	ErrInvalidSlot = errors.New("softengine: invalid key slot")

	// ErrKeyNotSet is returned when the addressed slot holds no key.
	ErrKeyNotSet = errors.New("softengine: key not set")

	// ErrMICMismatch is returned when a MIC verification fails.
	ErrMICMismatch = errors.New("softengine: invalid mic")

	// ErrInvalidBlockSize is returned when an input is not a multiple of
	// the AES block size.
	ErrInvalidBlockSize = errors.New("softengine: input must be a multiple of 16 bytes")

	// ErrInvalidBodySize is returned when a join-accept body does not
	// have the size of a join-accept payload with or without CFList.
	ErrInvalidBodySize = errors.New("softengine: invalid join-accept body size")
)

// Engine is a software implementation of the secure-element crypto engine.
type Engine struct {
	keys  [secureelement.NumSlots]lorawan.AES128Key
	inUse [secureelement.NumSlots]bool
	store Store
}

// Option is the interface for engine options.
type Option func(*Engine)

// WithStore sets the non-volatile store. Without a store the engine is
// volatile: restore and persist operations are no-ops.
func WithStore(store Store) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// New creates a new software engine. Slot 0 is pre-loaded with the all-zero
// key.
func New(opts ...Option) *Engine {
	e := &Engine{}
	for _, o := range opts {
		o(e)
	}
	e.inUse[secureelement.SlotGP0] = true
	return e
}

// RestoreFromNonVolatile implements the secureelement.Engine interface.
func (e *Engine) RestoreFromNonVolatile() error {
	if e.store == nil {
		return nil
	}

	keys, err := e.store.Load()
	if err != nil {
		return errors.Wrap(err, "load key table error")
	}
	for _, sk := range keys {
		if int(sk.Slot) >= secureelement.NumSlots {
			return ErrInvalidSlot
		}
		e.keys[sk.Slot] = sk.Key
		e.inUse[sk.Slot] = true
	}

	log.WithField("keys", len(keys)).Debug("softengine: key table restored")
	return nil
}

// StoreToNonVolatile implements the secureelement.Engine interface.
func (e *Engine) StoreToNonVolatile() error {
	if e.store == nil {
		return nil
	}

	var keys []SlotKey
	for i := range e.keys {
		// the all-zero key in slot 0 is implicit
		if !e.inUse[i] || secureelement.Slot(i) == secureelement.SlotGP0 {
			continue
		}
		keys = append(keys, SlotKey{
			Slot: secureelement.Slot(i),
			Key:  e.keys[i],
		})
	}

	if err := e.store.Save(keys); err != nil {
		return errors.Wrap(err, "save key table error")
	}

	log.WithField("keys", len(keys)).Debug("softengine: key table persisted")
	return nil
}

// SetKey implements the secureelement.Engine interface.
func (e *Engine) SetKey(slot secureelement.Slot, key lorawan.AES128Key) error {
	if int(slot) >= secureelement.NumSlots {
		return ErrInvalidSlot
	}
	e.keys[slot] = key
	e.inUse[slot] = true
	return nil
}

// ComputeAESCMAC implements the secureelement.Engine interface.
func (e *Engine) ComputeAESCMAC(slot secureelement.Slot, b []byte) (lorawan.MIC, error) {
	var mic lorawan.MIC

	key, err := e.key(slot)
	if err != nil {
		return mic, err
	}

	hash, err := cmac.New(key[:])
	if err != nil {
		return mic, errors.Wrap(err, "new cmac error")
	}
	if _, err := hash.Write(b); err != nil {
		return mic, errors.Wrap(err, "cmac write error")
	}
	copy(mic[:], hash.Sum(nil))

	return mic, nil
}

// VerifyAESCMAC implements the secureelement.Engine interface.
func (e *Engine) VerifyAESCMAC(slot secureelement.Slot, b []byte, expected lorawan.MIC) error {
	mic, err := e.ComputeAESCMAC(slot, b)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(mic[:], expected[:]) != 1 {
		return ErrMICMismatch
	}
	return nil
}

// AESEncrypt implements the secureelement.Engine interface. The buffer is
// encrypted block-wise with AES-128 and must be a multiple of 16 bytes.
func (e *Engine) AESEncrypt(slot secureelement.Slot, b []byte) ([]byte, error) {
	key, err := e.key(slot)
	if err != nil {
		return nil, err
	}
	return encryptBlocks(key, b)
}

// DeriveAndStoreKey implements the secureelement.Engine interface. The
// derived key is the AES-128 encryption of the seed block under the root
// key.
func (e *Engine) DeriveAndStoreKey(rootSlot, targetSlot secureelement.Slot, seed lorawan.AES128Key) error {
	if int(targetSlot) >= secureelement.NumSlots {
		return ErrInvalidSlot
	}

	rootKey, err := e.key(rootSlot)
	if err != nil {
		return err
	}

	b, err := encryptBlocks(rootKey, seed[:])
	if err != nil {
		return err
	}

	copy(e.keys[targetSlot][:], b)
	e.inUse[targetSlot] = true

	return nil
}

// ProcessJoinAccept implements the secureelement.Engine interface. The
// encrypted body is decrypted with the key in encSlot (a join-accept is
// decrypted by applying the AES encrypt operation), after which the MIC in
// its last four bytes is verified over micHeader plus the plaintext using
// the key in micSlot. The plaintext is written to decBody only when the MIC
// verifies.
func (e *Engine) ProcessJoinAccept(encSlot, micSlot secureelement.Slot, version uint8, micHeader, encBody, decBody []byte) error {
	// body without MHDR: payload (12 or 28 bytes) + MIC (4 bytes)
	if len(encBody) != 16 && len(encBody) != 32 {
		return ErrInvalidBodySize
	}
	if len(decBody) != len(encBody) {
		return ErrInvalidBodySize
	}

	encKey, err := e.key(encSlot)
	if err != nil {
		return err
	}

	plain, err := encryptBlocks(encKey, encBody)
	if err != nil {
		return err
	}

	b := make([]byte, 0, len(micHeader)+len(plain)-4)
	b = append(b, micHeader...)
	b = append(b, plain[:len(plain)-4]...)

	var mic lorawan.MIC
	copy(mic[:], plain[len(plain)-4:])

	if err := e.VerifyAESCMAC(micSlot, b, mic); err != nil {
		log.WithFields(log.Fields{
			"version_minor": version,
			"mic_slot":      micSlot,
		}).Debug("softengine: join-accept mic rejected")
		return err
	}

	copy(decBody, plain)
	return nil
}

func (e *Engine) key(slot secureelement.Slot) (lorawan.AES128Key, error) {
	var key lorawan.AES128Key
	if int(slot) >= secureelement.NumSlots {
		return key, ErrInvalidSlot
	}
	if !e.inUse[slot] {
		return key, ErrKeyNotSet
	}
	return e.keys[slot], nil
}

func encryptBlocks(key lorawan.AES128Key, b []byte) ([]byte, error) {
	if len(b)%aes.BlockSize != 0 {
		return nil, ErrInvalidBlockSize
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, errors.Wrap(err, "new cipher error")
	}

	out := make([]byte, len(b))
	for i := 0; i < len(b); i += aes.BlockSize {
		block.Encrypt(out[i:i+aes.BlockSize], b[i:i+aes.BlockSize])
	}
	return out, nil
}
