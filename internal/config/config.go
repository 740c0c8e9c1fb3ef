package config

// Version defines the chirpstack-secure-element version.
var Version string

// Config defines the configuration structure.
type Config struct {
	General struct {
		LogLevel int `mapstructure:"log_level"`
	} `mapstructure:"general"`

	SecureElement struct {
		// Identity defaults; a zero dev_eui is filled in from the
		// hardware unique device id.
		DevEUI  string `mapstructure:"dev_eui"`
		JoinEUI string `mapstructure:"join_eui"`
		Pin     string `mapstructure:"pin"`

		// Enable the LoRaWAN 1.1.x join-accept trial.
		LoRaWAN11 bool `mapstructure:"lorawan_1_1"`

		// File holding the serialized secure-element context.
		ContextFile string `mapstructure:"context_file"`

		Soft struct {
			// File holding the KEK-wrapped engine key table.
			NVMFile string `mapstructure:"nvm_file"`

			// Key-encryption key (hex encoded) wrapping the key
			// table at rest. Empty disables wrapping.
			KEK string `mapstructure:"kek"`
		} `mapstructure:"soft"`
	} `mapstructure:"secure_element"`
}

// C holds the global configuration.
var C Config
