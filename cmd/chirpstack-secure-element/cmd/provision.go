package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/brocaar/lorawan"
)

var (
	provisionDevEUI  string
	provisionJoinEUI string
	provisionPin     string
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision the secure-element identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		element, err := setupSecureElement()
		if err != nil {
			return err
		}

		if provisionDevEUI != "" {
			var eui lorawan.EUI64
			if err := eui.UnmarshalText([]byte(provisionDevEUI)); err != nil {
				return errors.Wrap(err, "decode dev-eui error")
			}
			if err := element.SetDevEUI(eui[:]); err != nil {
				return errors.Wrap(err, "set dev-eui error")
			}
		}

		if provisionJoinEUI != "" {
			var eui lorawan.EUI64
			if err := eui.UnmarshalText([]byte(provisionJoinEUI)); err != nil {
				return errors.Wrap(err, "decode join-eui error")
			}
			if err := element.SetJoinEUI(eui[:]); err != nil {
				return errors.Wrap(err, "set join-eui error")
			}
		}

		if provisionPin != "" {
			pin, err := hex.DecodeString(provisionPin)
			if err != nil {
				return errors.Wrap(err, "decode pin error")
			}
			if err := element.SetPin(pin); err != nil {
				return errors.Wrap(err, "set pin error")
			}
		}

		fmt.Printf("dev_eui: %s\n", element.DevEUI())
		fmt.Printf("join_eui: %s\n", element.JoinEUI())
		pin := element.Pin()
		fmt.Printf("pin: %s\n", hex.EncodeToString(pin[:]))

		return nil
	},
}

func init() {
	provisionCmd.Flags().StringVar(&provisionDevEUI, "dev-eui", "", "DevEUI (hex encoded)")
	provisionCmd.Flags().StringVar(&provisionJoinEUI, "join-eui", "", "JoinEUI (hex encoded)")
	provisionCmd.Flags().StringVar(&provisionPin, "pin", "", "pin (hex encoded, 4 bytes)")
}
