package session

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SESSION_SECRET から署名用/暗号化用のキーを導出する（HKDF-SHA256）
func deriveKeys(secret string) (hashKey, blockKey []byte, err error) {
	hashKey, err = derive(secret, "laekning session hash")
	if err != nil {
		return nil, nil, err
	}
	blockKey, err = derive(secret, "laekning session block")
	if err != nil {
		return nil, nil, err
	}
	return hashKey, blockKey, nil
}

func derive(secret, info string) ([]byte, error) {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	return key, nil
}
