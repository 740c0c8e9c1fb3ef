package secureelement

import (
	"github.com/brocaar/lorawan"
)

// PinSize defines the size of the secure-element pin.
const PinSize = 4

// ContextSize defines the serialized size of the secure-element context
// (DevEUI + JoinEUI + pin).
const ContextSize = 8 + 8 + PinSize

// ChangeNotifier is notified after every mutation of the secure-element
// context, so that an external persistence layer can snapshot it.
type ChangeNotifier interface {
	SecureElementContextChanged()
}

type nopNotifier struct{}

func (nopNotifier) SecureElementContextChanged() {}

// Context holds the non-volatile identity of the secure element. It is owned
// exclusively by the secure element and mutated only through its setters.
type Context struct {
	DevEUI  lorawan.EUI64
	JoinEUI lorawan.EUI64
	Pin     [PinSize]byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c Context) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, ContextSize)
	b = append(b, c.DevEUI[:]...)
	b = append(b, c.JoinEUI[:]...)
	b = append(b, c.Pin[:]...)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (c *Context) UnmarshalBinary(data []byte) error {
	if len(data) != ContextSize {
		return ErrInvalidLength
	}
	copy(c.DevEUI[:], data[0:8])
	copy(c.JoinEUI[:], data[8:16])
	copy(c.Pin[:], data[16:ContextSize])
	return nil
}

// SetDevEUI sets the DevEUI.
func (s *SecureElement) SetDevEUI(devEUI []byte) error {
	if devEUI == nil {
		return ErrNilInput
	}
	if len(devEUI) != len(s.ctx.DevEUI) {
		return ErrInvalidLength
	}
	copy(s.ctx.DevEUI[:], devEUI)
	s.notifier.SecureElementContextChanged()
	return nil
}

// DevEUI returns the DevEUI.
func (s *SecureElement) DevEUI() lorawan.EUI64 {
	return s.ctx.DevEUI
}

// SetJoinEUI sets the JoinEUI.
func (s *SecureElement) SetJoinEUI(joinEUI []byte) error {
	if joinEUI == nil {
		return ErrNilInput
	}
	if len(joinEUI) != len(s.ctx.JoinEUI) {
		return ErrInvalidLength
	}
	copy(s.ctx.JoinEUI[:], joinEUI)
	s.notifier.SecureElementContextChanged()
	return nil
}

// JoinEUI returns the JoinEUI.
func (s *SecureElement) JoinEUI() lorawan.EUI64 {
	return s.ctx.JoinEUI
}

// SetPin sets the pin.
func (s *SecureElement) SetPin(pin []byte) error {
	if pin == nil {
		return ErrNilInput
	}
	if len(pin) != PinSize {
		return ErrInvalidLength
	}
	copy(s.ctx.Pin[:], pin)
	s.notifier.SecureElementContextChanged()
	return nil
}

// Pin returns the pin.
func (s *SecureElement) Pin() [PinSize]byte {
	return s.ctx.Pin
}

// RestoreContext replaces the full secure-element context with the given
// blob, which must be exactly ContextSize bytes. The content is trusted
// verbatim; no validation is performed. The engine key table is restored
// from non-volatile storage as part of the same operation.
func (s *SecureElement) RestoreContext(blob []byte) error {
	if blob == nil {
		return ErrNilInput
	}
	if len(blob) != ContextSize {
		return ErrInvalidLength
	}
	if err := s.engine.RestoreFromNonVolatile(); err != nil {
		return err
	}
	return s.ctx.UnmarshalBinary(blob)
}

// ContextSnapshot returns the serialized secure-element context for external
// persistence.
func (s *SecureElement) ContextSnapshot() []byte {
	b, _ := s.ctx.MarshalBinary()
	return b
}
