package softengine

import (
	"crypto/aes"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"os"

	keywrap "github.com/NickBall/go-aes-key-wrap"
	"github.com/pkg/errors"

	"github.com/brocaar/lorawan"

	"github.com/brocaar/chirpstack-secure-element/internal/secureelement"
)

// SlotKey is a key-table entry.
type SlotKey struct {
	Slot secureelement.Slot
	Key  lorawan.AES128Key
}

// Store defines the non-volatile storage of the engine key table. The store
// never sees unwrapped key material when a KEK is configured.
type Store interface {
	Save(keys []SlotKey) error
	Load() ([]SlotKey, error)
}

// FileStore persists the key table to a file, with every key wrapped under
// the given KEK (AES key wrap). An empty KEK stores the raw key bytes.
type FileStore struct {
	path string
	kek  []byte
}

// NewFileStore creates a new FileStore.
func NewFileStore(path string, kek []byte) *FileStore {
	return &FileStore{
		path: path,
		kek:  kek,
	}
}

type nvmKey struct {
	Slot uint8  `json:"slot"`
	Key  string `json:"key"`
}

type nvmFile struct {
	Keys []nvmKey `json:"keys"`
}

// Save implements the Store interface.
func (f *FileStore) Save(keys []SlotKey) error {
	var out nvmFile
	for _, sk := range keys {
		b, err := f.wrap(sk.Key)
		if err != nil {
			return err
		}
		out.Keys = append(out.Keys, nvmKey{
			Slot: uint8(sk.Slot),
			Key:  hex.EncodeToString(b),
		})
	}

	b, err := json.Marshal(out)
	if err != nil {
		return errors.Wrap(err, "marshal nvm error")
	}
	if err := ioutil.WriteFile(f.path, b, 0600); err != nil {
		return errors.Wrap(err, "write nvm file error")
	}
	return nil
}

// Load implements the Store interface. A missing file is not an error; it
// yields an empty key table.
func (f *FileStore) Load() ([]SlotKey, error) {
	b, err := ioutil.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read nvm file error")
	}

	var in nvmFile
	if err := json.Unmarshal(b, &in); err != nil {
		return nil, errors.Wrap(err, "unmarshal nvm error")
	}

	var keys []SlotKey
	for _, nk := range in.Keys {
		wrapped, err := hex.DecodeString(nk.Key)
		if err != nil {
			return nil, errors.Wrap(err, "decode key error")
		}
		key, err := f.unwrap(wrapped)
		if err != nil {
			return nil, err
		}
		keys = append(keys, SlotKey{
			Slot: secureelement.Slot(nk.Slot),
			Key:  key,
		})
	}
	return keys, nil
}

func (f *FileStore) wrap(key lorawan.AES128Key) ([]byte, error) {
	if len(f.kek) == 0 {
		return key[:], nil
	}

	block, err := aes.NewCipher(f.kek)
	if err != nil {
		return nil, errors.Wrap(err, "new cipher error")
	}
	b, err := keywrap.Wrap(block, key[:])
	if err != nil {
		return nil, errors.Wrap(err, "wrap key error")
	}
	return b, nil
}

func (f *FileStore) unwrap(wrapped []byte) (lorawan.AES128Key, error) {
	var key lorawan.AES128Key

	if len(f.kek) == 0 {
		if len(wrapped) != len(key) {
			return key, errors.New("invalid key length")
		}
		copy(key[:], wrapped)
		return key, nil
	}

	block, err := aes.NewCipher(f.kek)
	if err != nil {
		return key, errors.Wrap(err, "new cipher error")
	}
	b, err := keywrap.Unwrap(block, wrapped)
	if err != nil {
		return key, errors.Wrap(err, "unwrap key error")
	}
	copy(key[:], b)
	return key, nil
}
