package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// OwnerKey returns a filesystem-safe, non-enumerable directory name for a user id.
func OwnerKey(userID int64) string {
	sum := sha256.Sum256([]byte("user:" + strconv.FormatInt(userID, 10)))
	return hex.EncodeToString(sum[:])
}
