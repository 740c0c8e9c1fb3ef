package cmd

import (
	"os"
	"text/template"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/brocaar/chirpstack-secure-element/internal/config"
)

const configTemplate = `[general]
# Log level
#
# debug=5, info=4, warning=3, error=2, fatal=1, panic=0
log_level={{ .General.LogLevel }}


# Secure-element settings.
[secure_element]
# DevEUI (hex encoded).
#
# When left blank, the DevEUI is derived from the hardware unique device id.
dev_eui="{{ .SecureElement.DevEUI }}"

# JoinEUI (hex encoded).
join_eui="{{ .SecureElement.JoinEUI }}"

# Secure-element pin (hex encoded, 4 bytes).
pin="{{ .SecureElement.Pin }}"

# Enable the LoRaWAN 1.1.x join-accept trial.
#
# When disabled, join-accept frames are only processed under the
# LoRaWAN 1.0.x hypothesis.
lorawan_1_1={{ .SecureElement.LoRaWAN11 }}

# File holding the serialized secure-element context.
#
# The context (DevEUI, JoinEUI and pin) is written to this file after
# every mutation.
context_file="{{ .SecureElement.ContextFile }}"


  # Software crypto-engine settings.
  [secure_element.soft]
  # File holding the engine key table.
  nvm_file="{{ .SecureElement.Soft.NVMFile }}"

  # Key-encryption key (hex encoded).
  #
  # When set, the key table is wrapped with this key (AES key wrap)
  # before it is written to the nvm file. When left blank, the key
  # table is stored unwrapped.
  kek="{{ .SecureElement.Soft.KEK }}"
`

var configCmd = &cobra.Command{
	Use:   "configfile",
	Short: "Print the ChirpStack Secure Element configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := template.Must(template.New("config").Parse(configTemplate))
		err := t.Execute(os.Stdout, &config.C)
		if err != nil {
			return errors.Wrap(err, "execute config template error")
		}
		return nil
	},
}
