package secureelement

import (
	"github.com/brocaar/lorawan"
)

// Engine defines the crypto engine that performs the AES-128 / CMAC
// arithmetic and owns the non-volatile key table. Implementations are
// addressed by key-table slot and never expose key material.
type Engine interface {
	// RestoreFromNonVolatile restores the key table from non-volatile
	// storage.
	RestoreFromNonVolatile() error

	// StoreToNonVolatile persists the key table to non-volatile storage.
	StoreToNonVolatile() error

	// SetKey writes the given key to the given slot.
	SetKey(slot Slot, key lorawan.AES128Key) error

	// ComputeAESCMAC computes the AES-CMAC over b using the key in the
	// given slot and returns the first four bytes.
	ComputeAESCMAC(slot Slot, b []byte) (lorawan.MIC, error)

	// VerifyAESCMAC computes the AES-CMAC over b using the key in the
	// given slot and compares it against the expected MIC.
	VerifyAESCMAC(slot Slot, b []byte, expected lorawan.MIC) error

	// AESEncrypt encrypts b block-wise with the key in the given slot.
	AESEncrypt(slot Slot, b []byte) ([]byte, error)

	// DeriveAndStoreKey derives a key from the key in rootSlot and the
	// given seed block and stores it in targetSlot.
	DeriveAndStoreKey(rootSlot, targetSlot Slot, seed lorawan.AES128Key) error

	// ProcessJoinAccept decrypts encBody (the join-accept frame without
	// its MHDR byte), verifies its MIC over micHeader plus the plaintext
	// using the key in micSlot, and on success writes the plaintext into
	// decBody. The version tag selects the MIC layout of the given
	// LoRaWAN minor version (0 or 1).
	ProcessJoinAccept(encSlot, micSlot Slot, version uint8, micHeader, encBody, decBody []byte) error
}

// Hardware defines the board-level collaborators of the secure element.
type Hardware interface {
	// UniqueID returns the 8-byte unique device identifier.
	UniqueID() (lorawan.EUI64, error)

	// RandomNumber returns a random number from the hardware entropy
	// source.
	RandomNumber() (uint32, error)
}
