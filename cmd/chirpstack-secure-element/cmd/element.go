package cmd

import (
	"encoding/hex"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/brocaar/lorawan"

	"github.com/brocaar/chirpstack-secure-element/internal/config"
	"github.com/brocaar/chirpstack-secure-element/internal/hardware"
	"github.com/brocaar/chirpstack-secure-element/internal/secureelement"
	"github.com/brocaar/chirpstack-secure-element/internal/softengine"
)

// contextFileNotifier writes the secure-element context snapshot to a file
// after every mutation.
type contextFileNotifier struct {
	path    string
	element *secureelement.SecureElement
}

// SecureElementContextChanged implements the secureelement.ChangeNotifier
// interface.
func (n *contextFileNotifier) SecureElementContextChanged() {
	if n.element == nil || n.path == "" {
		return
	}
	if err := ioutil.WriteFile(n.path, n.element.ContextSnapshot(), 0600); err != nil {
		log.WithError(err).WithField("file", n.path).Error("write context file error")
	}
}

// setupSecureElement builds the secure element from the configuration: a
// software engine persisting to the configured nvm file, the host hardware
// collaborator and a notifier snapshotting the context to the context file.
func setupSecureElement() (*secureelement.SecureElement, error) {
	conf := config.C.SecureElement

	var engineOpts []softengine.Option
	if conf.Soft.NVMFile != "" {
		var kek []byte
		if conf.Soft.KEK != "" {
			var err error
			kek, err = hex.DecodeString(conf.Soft.KEK)
			if err != nil {
				return nil, errors.Wrap(err, "decode kek error")
			}
		}
		engineOpts = append(engineOpts, softengine.WithStore(softengine.NewFileStore(conf.Soft.NVMFile, kek)))
	}
	engine := softengine.New(engineOpts...)

	notifier := &contextFileNotifier{path: conf.ContextFile}
	opts := []secureelement.Option{
		secureelement.WithChangeNotifier(notifier),
		secureelement.WithLoRaWAN11(conf.LoRaWAN11),
	}

	identity, err := identityFromConfig(conf.DevEUI, conf.JoinEUI, conf.Pin)
	if err != nil {
		return nil, err
	}
	if identity != nil {
		opts = append(opts, *identity)
	}

	element, err := secureelement.New(engine, hardware.Board{}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "new secure-element error")
	}

	// a previously written context snapshot takes precedence over the
	// configured identity defaults
	if conf.ContextFile != "" {
		b, err := ioutil.ReadFile(conf.ContextFile)
		if err == nil {
			if err := element.RestoreContext(b); err != nil {
				return nil, errors.Wrap(err, "restore context error")
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrap(err, "read context file error")
		}
	}

	notifier.element = element
	return element, nil
}

func identityFromConfig(devEUIStr, joinEUIStr, pinStr string) (*secureelement.Option, error) {
	if devEUIStr == "" && joinEUIStr == "" && pinStr == "" {
		return nil, nil
	}

	var devEUI, joinEUI lorawan.EUI64
	var pin [secureelement.PinSize]byte

	if devEUIStr != "" {
		if err := devEUI.UnmarshalText([]byte(devEUIStr)); err != nil {
			return nil, errors.Wrap(err, "decode dev_eui error")
		}
	}
	if joinEUIStr != "" {
		if err := joinEUI.UnmarshalText([]byte(joinEUIStr)); err != nil {
			return nil, errors.Wrap(err, "decode join_eui error")
		}
	}
	if pinStr != "" {
		b, err := hex.DecodeString(pinStr)
		if err != nil || len(b) != secureelement.PinSize {
			return nil, errors.New("decode pin error")
		}
		copy(pin[:], b)
	}

	opt := secureelement.WithIdentity(devEUI, joinEUI, pin)
	return &opt, nil
}
