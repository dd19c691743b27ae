package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	messageIDPrefix = "msg_"
)

var messageIDPattern = regexp.MustCompile(`^msg_[a-zA-Z0-9]{24}$`)

// NewMessageID generates a new message ID with the "msg_" prefix
// followed by 24 cryptographically random alphanumeric characters.
func NewMessageID() string {
	return messageIDPrefix + randomAlphanumeric(idLength)
}

// ValidateMessageID checks whether the given string is a valid message ID
// (matches "msg_" + 24 alphanumeric characters).
func ValidateMessageID(id string) bool {
	return messageIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
