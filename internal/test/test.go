// Package test provides shared helpers for tests.
package test

import (
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

// MustAES128Key returns the AES128Key for the given hex string, panicking on
// error.
func MustAES128Key(s string) lorawan.AES128Key {
	var key lorawan.AES128Key
	if err := key.UnmarshalText([]byte(s)); err != nil {
		panic(err)
	}
	return key
}

// MustEUI64 returns the EUI64 for the given hex string, panicking on error.
func MustEUI64(s string) lorawan.EUI64 {
	var eui lorawan.EUI64
	if err := eui.UnmarshalText([]byte(s)); err != nil {
		panic(err)
	}
	return eui
}
