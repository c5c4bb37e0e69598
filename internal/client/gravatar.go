package client

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// GravatarURL builds the default avatar for a new account from the email
// address. Gravatar hashes the trimmed, lowercased address with md5.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=identicon&s=250", hex.EncodeToString(sum[:]))
}
