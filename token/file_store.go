package token

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/loghealer-client/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	fileMode = 0o600
	dirMode  = 0o700

	envelopeVersion = 1
	saltSize        = 16
	argonTime       = 1
	argonMemory     = 64 * 1024
	argonThreads    = 4
)

var _ Store = (*FileStore)(nil)

// FileStore keeps the tokens in a single JSON file. With a passphrase the
// payload is sealed with XChaCha20-Poly1305 under an Argon2id derived key.
type FileStore struct {
	path       string
	passphrase []byte
	lock       sync.Mutex
}

type FileStoreOption func(*FileStore)

// WithPassphrase enables at-rest encryption.
func WithPassphrase(passphrase string) FileStoreOption {
	return func(fs *FileStore) {
		if passphrase != "" {
			fs.passphrase = []byte(passphrase)
		}
	}
}

func NewFileStore(path string, options ...FileStoreOption) *FileStore {
	fs := &FileStore{path: path}
	for _, opt := range options {
		opt(fs)
	}
	return fs
}

// envelope is the on-disk shape of an encrypted store.
type envelope struct {
	Version int    `json:"v"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Data    []byte `json:"data"`
}

func (fs *FileStore) Save(_ context.Context, p Pair) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	current, err := fs.read()
	if err != nil {
		// An unreadable store is replaced rather than blocking a fresh login.
		current = Stored{}
	}
	return fs.write(current.Merge(p))
}

func (fs *FileStore) Load(_ context.Context) (Stored, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.read()
}

func (fs *FileStore) Clear(_ context.Context) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("[FileStore Clear] removing %s: %w", fs.path, err)
	}
	return nil
}

func (fs *FileStore) HasAccessToken(ctx context.Context) bool {
	s, err := fs.Load(ctx)
	return err == nil && s.AccessToken != ""
}

func (fs *FileStore) read() (Stored, error) {
	raw, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return Stored{}, nil
	}
	if err != nil {
		return Stored{}, fmt.Errorf("[FileStore Load] reading %s: %w", fs.path, err)
	}

	payload := raw
	if fs.passphrase != nil {
		if payload, err = fs.open(raw); err != nil {
			return Stored{}, err
		}
	}

	var s Stored
	if err := json.Unmarshal(payload, &s); err != nil {
		return Stored{}, apperrors.Wrapf(apperrors.ErrCorruptStore, "[FileStore Load] %s: %v", fs.path, err)
	}
	return s, nil
}

func (fs *FileStore) write(s Stored) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("[FileStore Save] encoding: %w", err)
	}
	if fs.passphrase != nil {
		if payload, err = fs.seal(payload); err != nil {
			return err
		}
	}
	return fs.replace(payload)
}

// replace swaps the store for payload in one rename, so a crash leaves
// either the previous tokens or the new ones on disk.
func (fs *FileStore) replace(payload []byte) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("[FileStore Save] creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(fs.path)+".*")
	if err != nil {
		return fmt.Errorf("[FileStore Save] %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(fileMode); err != nil {
		return fmt.Errorf("[FileStore Save] %w", err)
	}
	if _, err := tmp.Write(payload); err != nil {
		return fmt.Errorf("[FileStore Save] %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("[FileStore Save] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[FileStore Save] %w", err)
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return fmt.Errorf("[FileStore Save] replacing %s: %w", fs.path, err)
	}
	committed = true
	return nil
}

func (fs *FileStore) seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("[FileStore Save] salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(fs.key(salt))
	if err != nil {
		return nil, fmt.Errorf("[FileStore Save] cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("[FileStore Save] nonce: %w", err)
	}

	return json.Marshal(envelope{
		Version: envelopeVersion,
		Salt:    salt,
		Nonce:   nonce,
		Data:    aead.Seal(nil, nonce, plaintext, nil),
	})
}

func (fs *FileStore) open(raw []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Version != envelopeVersion {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "[FileStore Load] %s is not an encrypted token store", fs.path)
	}
	aead, err := chacha20poly1305.NewX(fs.key(env.Salt))
	if err != nil {
		return nil, fmt.Errorf("[FileStore Load] cipher: %w", err)
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, apperrors.Wrapf(apperrors.ErrCorruptStore, "[FileStore Load] bad nonce length %d", len(env.Nonce))
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Data, nil)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.ErrDecryptFailed, "[FileStore Load] %s", fs.path)
	}
	return plaintext, nil
}

func (fs *FileStore) key(salt []byte) []byte {
	return argon2.IDKey(fs.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}
