// Package crypto шифрует строковые поля (ссылки на подтверждения оплаты,
// имена пользователей) алгоритмом AES-256-GCM. Ключ выводится из секрета
// через PBKDF2-SHA256, результат хранится как JSON {iv, data, authTag} в hex.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLen     = 32
	iterations = 100000
	nonceSize  = 12
	tagSize    = 16
)

// salt совпадает с тем, которым зашифрованы уже сохранённые данные платформы.
var salt = []byte("unique_salt")

// ErrMalformed возвращается, если зашифрованное значение имеет неверный формат.
var ErrMalformed = errors.New("malformed encrypted value")

// Envelope сериализованный вид зашифрованного значения.
type Envelope struct {
	IV      string `json:"iv"`
	Data    string `json:"data"`
	AuthTag string `json:"authTag"`
}

// Cipher шифрует и расшифровывает строки одним ключом.
type Cipher struct {
	aead cipher.AEAD
}

// New выводит ключ из секрета и готовит AES-GCM.
func New(secret string) (*Cipher, error) {
	const op = "crypto.New"
	if secret == "" {
		return nil, fmt.Errorf("%s: empty secret", op)
	}
	key := pbkdf2.Key([]byte(secret), salt, iterations, keyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cipher{aead: aead}, nil
}

// EncryptString шифрует строку и возвращает JSON-конверт.
func (c *Cipher) EncryptString(plain string) (string, error) {
	const op = "crypto.EncryptString"
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	sealed := c.aead.Seal(nil, nonce, []byte(plain), nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out, err := json.Marshal(Envelope{
		IV:      hex.EncodeToString(nonce),
		Data:    hex.EncodeToString(ct),
		AuthTag: hex.EncodeToString(tag),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(out), nil
}

// DecryptString расшифровывает JSON-конверт, созданный EncryptString.
func (c *Cipher) DecryptString(envelope string) (string, error) {
	const op = "crypto.DecryptString"
	var env Envelope
	if err := json.Unmarshal([]byte(envelope), &env); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrMalformed, err)
	}
	if env.IV == "" || env.Data == "" || env.AuthTag == "" {
		return "", fmt.Errorf("%s: %w", op, ErrMalformed)
	}
	nonce, err := hex.DecodeString(env.IV)
	if err != nil || len(nonce) != nonceSize {
		return "", fmt.Errorf("%s: %w: iv", op, ErrMalformed)
	}
	ct, err := hex.DecodeString(env.Data)
	if err != nil {
		return "", fmt.Errorf("%s: %w: data", op, ErrMalformed)
	}
	tag, err := hex.DecodeString(env.AuthTag)
	if err != nil || len(tag) != tagSize {
		return "", fmt.Errorf("%s: %w: auth tag", op, ErrMalformed)
	}
	plain, err := c.aead.Open(nil, nonce, append(ct, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(plain), nil
}
