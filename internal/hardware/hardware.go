// Package hardware implements the board-level collaborators of the secure
// element on top of the host OS.
package hardware

import (
	"crypto/rand"
	"encoding/binary"
	"net"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan"
)

// Board exposes the unique device ID and the hardware random-number source.
// The unique ID is derived from the first hardware MAC address (EUI-48 to
// EUI-64 expansion); hosts without one get a random ID. Random numbers come
// from the OS entropy source.
type Board struct{}

// UniqueID returns the 8-byte unique device identifier.
func (b Board) UniqueID() (lorawan.EUI64, error) {
	var eui lorawan.EUI64

	ifs, err := net.Interfaces()
	if err != nil {
		return eui, errors.Wrap(err, "get interfaces error")
	}

	for _, i := range ifs {
		if len(i.HardwareAddr) != 6 {
			continue
		}

		copy(eui[0:3], i.HardwareAddr[0:3])
		eui[3] = 0xff
		eui[4] = 0xfe
		copy(eui[5:8], i.HardwareAddr[3:6])

		log.WithFields(log.Fields{
			"interface": i.Name,
			"dev_eui":   eui,
		}).Debug("hardware: unique id derived from mac address")

		return eui, nil
	}

	if _, err := rand.Read(eui[:]); err != nil {
		return eui, errors.Wrap(err, "read random error")
	}

	log.WithField("dev_eui", eui).Warning("hardware: no mac address found, using random unique id")
	return eui, nil
}

// RandomNumber returns a random number from the OS entropy source.
func (b Board) RandomNumber() (uint32, error) {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, errors.Wrap(err, "read random error")
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}
