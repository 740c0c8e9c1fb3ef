// Package secureelement implements a LoRaWAN secure-element abstraction.
// It holds the device identity (DevEUI, JoinEUI, pin) and performs the
// LoRaWAN crypto operations (CMAC, AES encryption, key derivation and
// join-accept decryption) against a crypto engine that owns the actual
// key material. Keys are referenced by identifier only; raw key bytes
// never cross the secure-element boundary towards the MAC layer.
//
// All operations are synchronous and must be serialized by the caller.
// Concurrent invocation without external synchronization is undefined.
package secureelement

import (
	"fmt"
)

// KeyIdentifier is an opaque handle to one of the logical keys held by the
// secure element.
type KeyIdentifier int

// Available key identifiers.
const (
	// AppKey is the application root key.
	AppKey KeyIdentifier = iota
	// NwkKey is the network root key.
	NwkKey
	// JSIntKey is the join-session integrity key.
	JSIntKey
	// JSEncKey is the join-session encryption key.
	JSEncKey
	// FNwkSIntKey is the forwarding network session integrity key.
	FNwkSIntKey
	// SNwkSIntKey is the serving network session integrity key.
	SNwkSIntKey
	// NwkSEncKey is the network session encryption key.
	NwkSEncKey
	// AppSKey is the application session key.
	AppSKey
	// McRootKey is the multicast root key.
	McRootKey
	// McKEKey is the multicast key-encryption key.
	McKEKey
	// McKey0 is the root key of multicast group 0.
	McKey0
	// McAppSKey0 is the application session key of multicast group 0.
	McAppSKey0
	// McNwkSKey0 is the network session key of multicast group 0.
	McNwkSKey0
	// McKey1 is the root key of multicast group 1.
	McKey1
	// McAppSKey1 is the application session key of multicast group 1.
	McAppSKey1
	// McNwkSKey1 is the network session key of multicast group 1.
	McNwkSKey1
	// McKey2 is the root key of multicast group 2.
	McKey2
	// McAppSKey2 is the application session key of multicast group 2.
	McAppSKey2
	// McNwkSKey2 is the network session key of multicast group 2.
	McNwkSKey2
	// McKey3 is the root key of multicast group 3.
	McKey3
	// McAppSKey3 is the application session key of multicast group 3.
	McAppSKey3
	// McNwkSKey3 is the network session key of multicast group 3.
	McNwkSKey3
	// SlotRandZeroKey is the all-zero key used for MIC computation over
	// pseudo-random payloads.
	SlotRandZeroKey
)

var keyIdentifierNames = map[KeyIdentifier]string{
	AppKey:          "AppKey",
	NwkKey:          "NwkKey",
	JSIntKey:        "JSIntKey",
	JSEncKey:        "JSEncKey",
	FNwkSIntKey:     "FNwkSIntKey",
	SNwkSIntKey:     "SNwkSIntKey",
	NwkSEncKey:      "NwkSEncKey",
	AppSKey:         "AppSKey",
	McRootKey:       "McRootKey",
	McKEKey:         "McKEKey",
	McKey0:          "McKey0",
	McAppSKey0:      "McAppSKey0",
	McNwkSKey0:      "McNwkSKey0",
	McKey1:          "McKey1",
	McAppSKey1:      "McAppSKey1",
	McNwkSKey1:      "McNwkSKey1",
	McKey2:          "McKey2",
	McAppSKey2:      "McAppSKey2",
	McNwkSKey2:      "McNwkSKey2",
	McKey3:          "McKey3",
	McAppSKey3:      "McAppSKey3",
	McNwkSKey3:      "McNwkSKey3",
	SlotRandZeroKey: "SlotRandZeroKey",
}

// String implements fmt.Stringer.
func (k KeyIdentifier) String() string {
	if s, ok := keyIdentifierNames[k]; ok {
		return s
	}
	return fmt.Sprintf("KeyIdentifier(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k KeyIdentifier) MarshalText() ([]byte, error) {
	s, ok := keyIdentifierNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown key identifier: %d", int(k))
	}
	return []byte(s), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *KeyIdentifier) UnmarshalText(text []byte) error {
	for id, name := range keyIdentifierNames {
		if name == string(text) {
			*k = id
			return nil
		}
	}
	return fmt.Errorf("unknown key identifier: %s", string(text))
}

// Slot is an index into the key table of the crypto engine.
type Slot uint8

// Engine key-table slots.
const (
	// SlotGP0 is general-purpose slot 0, holding the all-zero key.
	SlotGP0 Slot = iota
	// SlotGP1 is general-purpose slot 1, the shared target of every key
	// identifier without an explicit mapping.
	SlotGP1
	SlotAppKey
	SlotNwkKey
	SlotJSIntKey
	SlotJSEncKey
	SlotFNwkSIntKey
	SlotSNwkSIntKey
	SlotNwkSEncKey
	SlotAppSKey
	SlotMcRootKey
	SlotMcKEKey
	SlotMcKey0
	SlotMcAppSKey0
	SlotMcNwkSKey0
	SlotMcKey1
	SlotMcAppSKey1
	SlotMcNwkSKey1
	SlotMcKey2
	SlotMcAppSKey2
	SlotMcNwkSKey2
	SlotMcKey3
	SlotMcAppSKey3
	SlotMcNwkSKey3
)

// NumSlots defines the size of the engine key table.
const NumSlots = int(SlotMcNwkSKey3) + 1

// SlotForKey maps a key identifier to its engine key-table slot. The mapping
// is total: identifiers outside the declared set resolve to SlotGP1 rather
// than failing, so callers must not rely on an unmapped identifier producing
// a unique slot.
func SlotForKey(id KeyIdentifier) Slot {
	switch id {
	case AppKey:
		return SlotAppKey
	case NwkKey:
		return SlotNwkKey
	case JSIntKey:
		return SlotJSIntKey
	case JSEncKey:
		return SlotJSEncKey
	case FNwkSIntKey:
		return SlotFNwkSIntKey
	case SNwkSIntKey:
		return SlotSNwkSIntKey
	case NwkSEncKey:
		return SlotNwkSEncKey
	case AppSKey:
		return SlotAppSKey
	case McRootKey:
		return SlotMcRootKey
	case McKEKey:
		return SlotMcKEKey
	case McKey0:
		return SlotMcKey0
	case McAppSKey0:
		return SlotMcAppSKey0
	case McNwkSKey0:
		return SlotMcNwkSKey0
	case McKey1:
		return SlotMcKey1
	case McAppSKey1:
		return SlotMcAppSKey1
	case McNwkSKey1:
		return SlotMcNwkSKey1
	case McKey2:
		return SlotMcKey2
	case McAppSKey2:
		return SlotMcAppSKey2
	case McNwkSKey2:
		return SlotMcNwkSKey2
	case McKey3:
		return SlotMcKey3
	case McAppSKey3:
		return SlotMcAppSKey3
	case McNwkSKey3:
		return SlotMcNwkSKey3
	case SlotRandZeroKey:
		return SlotGP0
	default:
		return SlotGP1
	}
}
