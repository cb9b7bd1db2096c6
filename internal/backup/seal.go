// ABOUTME: Passphrase sealing for backup files using scrypt and NaCl secretbox
// ABOUTME: Sealed files start with a magic header so import can detect them

package backup

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// ErrBadPassphrase is returned when a sealed backup cannot be opened with the
// given passphrase, or the file was altered.
var ErrBadPassphrase = errors.New("wrong passphrase or corrupted backup")

var sealMagic = []byte("CHATVAULT-SEALED\x01")

const (
	saltSize  = 16
	nonceSize = 24

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// IsSealed reports whether data is a sealed backup.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealMagic)
}

// Seal encrypts plain with a key derived from passphrase.
// Layout: magic | salt | nonce | secretbox.
func Seal(plain []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("sealing requires a passphrase")
	}

	var salt [saltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	key, err := deriveKey(passphrase, salt[:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(sealMagic)+saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, sealMagic...)
	out = append(out, salt[:]...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, key), nil
}

// Unseal decrypts data produced by Seal.
func Unseal(data []byte, passphrase string) ([]byte, error) {
	if !IsSealed(data) {
		return nil, errors.New("backup is not sealed")
	}
	body := data[len(sealMagic):]
	if len(body) < saltSize+nonceSize+secretbox.Overhead {
		return nil, ErrBadPassphrase
	}

	salt := body[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], body[saltSize:saltSize+nonceSize])
	box := body[saltSize+nonceSize:]

	key, err := deriveKey(passphrase, salt)
	if err != nil {
		return nil, err
	}

	plain, ok := secretbox.Open(nil, box, &nonce, key)
	if !ok {
		return nil, ErrBadPassphrase
	}
	return plain, nil
}

func deriveKey(passphrase string, salt []byte) (*[32]byte, error) {
	raw, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, 32)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
