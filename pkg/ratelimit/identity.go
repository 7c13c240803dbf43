package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/eyesofazrael/azrael/pkg/models"
)

// Identity is the caller a quota is counted against.
type Identity struct {
	// Key names the request document: "ip_<hash>" for anonymous callers
	// and "user_<uid>" otherwise.
	Key    string
	Type   models.UserType
	IPHash string
	UID    string
}

// Anonymous returns the identity of an unauthenticated caller.
func Anonymous(ipHash string) Identity {
	return Identity{Key: "ip_" + ipHash, Type: models.UserAnonymous, IPHash: ipHash}
}

// User returns the identity of an authenticated caller.
func User(uid, ipHash string, admin bool) Identity {
	t := models.UserAuthenticated
	if admin {
		t = models.UserAdmin
	}
	return Identity{Key: "user_" + uid, Type: t, IPHash: ipHash, UID: uid}
}

// HashIP returns the hex SHA-256 of ip with salt appended. Raw addresses
// are never stored.
func HashIP(ip, salt string) string {
	h := sha256.Sum256([]byte(ip + salt))
	return hex.EncodeToString(h[:])
}
