package secureelement

import (
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan"
)

// joinAcceptMHDR is the MHDR byte of a join-accept frame (MType join-accept,
// major LoRaWAN R1).
const joinAcceptMHDR = 0x20

// joinAcceptState is the state of the join-accept trial protocol.
type joinAcceptState int

const (
	// tryingV10 decrypts under the LoRaWAN 1.0.x hypothesis: NwkKey as
	// MIC key, a single MHDR byte as MIC header.
	tryingV10 joinAcceptState = iota
	// tryingV11 decrypts under the LoRaWAN 1.1.x hypothesis: JSIntKey as
	// MIC key, the full JoinReqType | JoinEUI | DevNonce | MHDR header.
	tryingV11
	done
	failed
)

// ProcessJoinAccept decrypts the given encrypted join-accept frame into
// decJoinAccept and returns the detected LoRaWAN minor version.
//
// The protocol version of the network server is not known up front; the only
// reliable signal is the OptNeg bit in the DLSettings byte, which can be read
// only after a version-specific decryption and MIC check succeeds. The frame
// is therefore trial-decrypted: first under the 1.0.x hypothesis, then (when
// 1.1.x support is enabled and the first trial is rejected or reads back an
// OptNeg bit contradicting it) under the 1.1.x hypothesis. A trial is
// accepted only when the decrypted OptNeg bit agrees with it.
//
// decJoinAccept must be the same size as encJoinAccept; its first byte (the
// MHDR, which is not encrypted) is left untouched.
func (s *SecureElement) ProcessJoinAccept(joinReqType lorawan.JoinType, joinEUI lorawan.EUI64, devNonce lorawan.DevNonce, encJoinAccept, decJoinAccept []byte) (uint8, error) {
	if encJoinAccept == nil || decJoinAccept == nil {
		return 0, ErrNilInput
	}
	if len(encJoinAccept) > maxJoinAcceptSize {
		return 0, ErrBufferTooLarge
	}
	if len(decJoinAccept) != len(encJoinAccept) {
		return 0, ErrInvalidLength
	}

	// The join-session encryption key covers the re-join variants.
	encKey := NwkKey
	if joinReqType != lorawan.JoinRequestType {
		encKey = JSEncKey
	}

	var versionMinor uint8
	var lastErr error

	state := tryingV10
	for state != done && state != failed {
		switch state {
		case tryingV10:
			err := s.engine.ProcessJoinAccept(
				SlotForKey(encKey), SlotForKey(NwkKey), 0,
				[]byte{joinAcceptMHDR},
				encJoinAccept[1:], decJoinAccept[1:],
			)
			if err != nil {
				lastErr = err
				if s.lorawan11 {
					state = tryingV11
				} else {
					state = failed
				}
				break
			}

			versionMinor = dlSettingsVersionMinor(decJoinAccept)
			if versionMinor == 0 || !s.lorawan11 {
				state = done
				break
			}

			// The MIC validated against the 1.0.x layout but the
			// OptNeg bit is set, so the trial can not be trusted.
			log.WithFields(log.Fields{
				"join_eui":  joinEUI,
				"dev_nonce": devNonce,
			}).Warning("secure-element: join-accept decrypted as 1.0.x but OptNeg is set, trying 1.1.x")
			lastErr = ErrVersionUndetermined
			state = tryingV11

		case tryingV11:
			err := s.engine.ProcessJoinAccept(
				SlotForKey(encKey), SlotForKey(JSIntKey), 1,
				micHeader11(joinReqType, joinEUI, devNonce),
				encJoinAccept[1:], decJoinAccept[1:],
			)
			if err != nil {
				lastErr = err
				state = failed
				break
			}

			versionMinor = dlSettingsVersionMinor(decJoinAccept)
			if versionMinor == 1 {
				state = done
				break
			}
			lastErr = ErrVersionUndetermined
			state = failed
		}
	}

	if state == failed {
		return 0, lastErr
	}

	log.WithFields(log.Fields{
		"join_req_type": joinReqType,
		"version_minor": versionMinor,
	}).Debug("secure-element: join-accept processed")

	return versionMinor, nil
}

// micHeader11 composes the LoRaWAN 1.1.x join-accept MIC header:
// JoinReqType(1) | JoinEUI(8, byte-reversed) | DevNonce(2, little-endian) |
// MHDR(1).
func micHeader11(joinReqType lorawan.JoinType, joinEUI lorawan.EUI64, devNonce lorawan.DevNonce) []byte {
	hdr := make([]byte, 0, 12)
	hdr = append(hdr, uint8(joinReqType))
	for i := len(joinEUI) - 1; i >= 0; i-- {
		hdr = append(hdr, joinEUI[i])
	}
	hdr = append(hdr, uint8(devNonce&0xff), uint8(devNonce>>8))
	hdr = append(hdr, joinAcceptMHDR)
	return hdr
}

// dlSettingsVersionMinor reads the LoRaWAN minor version from the OptNeg bit
// of the decrypted DLSettings byte (offset 11 of the full frame).
func dlSettingsVersionMinor(decJoinAccept []byte) uint8 {
	if decJoinAccept[11]&0x80 == 0x80 {
		return 1
	}
	return 0
}
