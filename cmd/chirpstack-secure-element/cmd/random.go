package cmd

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Print a random number from the hardware entropy source",
	RunE: func(cmd *cobra.Command, args []string) error {
		element, err := setupSecureElement()
		if err != nil {
			return err
		}

		r, err := element.RandomNumber()
		if err != nil {
			return errors.Wrap(err, "get random number error")
		}

		fmt.Println(r)
		return nil
	},
}
