package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
)

// envelopeKey is the only variable key an encrypted state carries in the wrapped store.
const envelopeKey = "__encrypted__"

// ErrMissingEnvelope is returned when a stored state holds plain learner data.
var ErrMissingEnvelope = errors.New("learner state is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

// payload is what gets sealed: everything a learner typed or was assigned.
type payload struct {
	VariablesState map[string]any             `json:"variables_state"`
	History        []domain.InteractionRecord `json:"history"`
}

type encryptionMiddleware struct {
	next   ports.LearnerStateStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals variables and interaction
// history with AES-GCM. The wrapped store only sees an opaque envelope plus ids and
// timestamps. Updates read, merge and rewrite the whole envelope, so callers must
// serialize writes per session (the engine's session lock does).
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.LearnerStateStore) ports.LearnerStateStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) GetOrCreateLearnerState(ctx context.Context, moduleID, userID string) (*domain.LearnerState, error) {
	envelope, err := m.next.GetOrCreateLearnerState(ctx, moduleID, userID)
	if err != nil {
		return nil, err
	}
	return m.open(envelope)
}

func (m *encryptionMiddleware) UpdateLearnerState(ctx context.Context, moduleID, userID string, update domain.LearnerStateUpdate) (*domain.LearnerState, error) {
	current, err := m.GetOrCreateLearnerState(ctx, moduleID, userID)
	if err != nil {
		return nil, err
	}
	update.Apply(current, current.UpdatedAt)

	plainText, err := json.Marshal(payload{VariablesState: current.VariablesState, History: current.History})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal learner state: %w", err)
	}
	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt learner state: %w", err)
	}

	stored, err := m.next.UpdateLearnerState(ctx, moduleID, userID, domain.LearnerStateUpdate{
		VariablesState: map[string]any{envelopeKey: base64.StdEncoding.EncodeToString(ciphertext)},
		History:        []domain.InteractionRecord{},
	})
	if err != nil {
		return nil, err
	}

	current.CreatedAt = stored.CreatedAt
	current.UpdatedAt = stored.UpdatedAt
	return current, nil
}

// open decrypts envelope. A state that was never written is returned as is.
func (m *encryptionMiddleware) open(envelope *domain.LearnerState) (*domain.LearnerState, error) {
	encryptedStr, ok := envelope.VariablesState[envelopeKey].(string)
	if !ok {
		if len(envelope.VariablesState) == 0 && len(envelope.History) == 0 {
			return envelope, nil
		}
		return nil, ErrMissingEnvelope
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	// Try Active, then Fallback
	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt learner state: %w", err)
	}

	var p payload
	if err := json.Unmarshal(plainText, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted learner state: %w", err)
	}

	state := *envelope
	state.VariablesState = p.VariablesState
	if state.VariablesState == nil {
		state.VariablesState = make(map[string]any)
	}
	state.History = p.History
	if state.History == nil {
		state.History = []domain.InteractionRecord{}
	}
	return &state, nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
