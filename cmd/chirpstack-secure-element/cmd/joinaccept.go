package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/brocaar/lorawan"
)

var (
	joinAcceptReqType  string
	joinAcceptDevNonce uint16
)

var joinReqTypes = map[string]lorawan.JoinType{
	"join":    lorawan.JoinRequestType,
	"rejoin0": lorawan.RejoinRequestType0,
	"rejoin1": lorawan.RejoinRequestType1,
	"rejoin2": lorawan.RejoinRequestType2,
}

var joinAcceptCmd = &cobra.Command{
	Use:   "join-accept [frame (hex encoded)]",
	Short: "Decrypt a join-accept frame and detect the LoRaWAN version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		joinReqType, ok := joinReqTypes[joinAcceptReqType]
		if !ok {
			return errors.New("join-req-type must be one of: join, rejoin0, rejoin1, rejoin2")
		}

		frame, err := hex.DecodeString(args[0])
		if err != nil {
			return errors.Wrap(err, "decode frame error")
		}

		element, err := setupSecureElement()
		if err != nil {
			return err
		}

		dec := make([]byte, len(frame))
		if len(frame) != 0 {
			dec[0] = frame[0]
		}

		versionMinor, err := element.ProcessJoinAccept(joinReqType, element.JoinEUI(), lorawan.DevNonce(joinAcceptDevNonce), frame, dec)
		if err != nil {
			return errors.Wrap(err, "process join-accept error")
		}

		fmt.Printf("lorawan_version: 1.%d\n", versionMinor)
		fmt.Printf("frame: %s\n", hex.EncodeToString(dec))

		return nil
	},
}

func init() {
	joinAcceptCmd.Flags().StringVar(&joinAcceptReqType, "join-req-type", "join", "type of the originating request (join, rejoin0, rejoin1, rejoin2)")
	joinAcceptCmd.Flags().Uint16Var(&joinAcceptDevNonce, "dev-nonce", 0, "DevNonce of the originating request")
}
