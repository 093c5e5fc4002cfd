package identity

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Hasher creates and checks password hashes. New hashes are always bcrypt;
// Legacy additionally accepts hashes made by LegacyHash.
type Hasher struct {
	Cost   int
	Legacy bool
}

func (h Hasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", &fieldError{msg: "password is too long"}
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(out), nil
}

// Verify reports whether password matches stored, and whether stored was a
// legacy hash that should be replaced.
func (h Hasher) Verify(stored, password string) (ok, legacy bool) {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
	}
	if !h.Legacy {
		return false, false
	}
	match := subtle.ConstantTimeCompare([]byte(stored), []byte(LegacyHash(password))) == 1
	return match, match
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// LegacyHash is the old stored form of a password: a djb2 sum of the bytes,
// written little-endian and turned into a name-based UUID in the OID namespace.
// It is not a safe password hash and is only read for existing accounts.
func LegacyHash(password string) string {
	var sum int64 = 5381
	for _, b := range []byte(password) {
		sum = sum*33 + int64(b)
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(sum))
	return uuid.NewMD5(uuid.NameSpaceOID, buf[:]).String()
}
