package cmd

import (
	"encoding/hex"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/brocaar/chirpstack-secure-element/internal/secureelement"
)

var setKeyCmd = &cobra.Command{
	Use:   "set-key [key-identifier] [key (hex encoded)]",
	Short: "Store a key under the given key identifier",
	Long: `Store a key under the given key identifier (e.g. AppKey, NwkKey, McKey0).
Multicast group keys (McKey0 - McKey3) are expected in wrapped form and are
unwrapped under the multicast key-encryption key before they are stored.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var keyID secureelement.KeyIdentifier
		if err := keyID.UnmarshalText([]byte(args[0])); err != nil {
			return errors.Wrap(err, "decode key identifier error")
		}

		key, err := hex.DecodeString(args[1])
		if err != nil {
			return errors.Wrap(err, "decode key error")
		}

		element, err := setupSecureElement()
		if err != nil {
			return err
		}

		if err := element.SetKey(keyID, key); err != nil {
			return errors.Wrap(err, "set key error")
		}

		log.WithField("key_id", keyID).Info("key stored")
		return nil
	},
}
