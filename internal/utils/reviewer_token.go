package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

// ErrInvalidToken is returned when a reviewer token cannot be decoded.
var ErrInvalidToken = errors.New("invalid reviewer token")

// EncodeReviewerToken derives the opaque reviewer id carried in form links.
//
// The pair is serialized as a JSON array before base64url encoding, so neither
// value needs escaping and emails may contain any delimiter character. The token
// is an identifier, not a credential: anyone holding it can decode it.
func EncodeReviewerToken(email, assessmentID string) string {
	// Marshalling a []string cannot fail.
	raw, _ := json.Marshal([]string{email, assessmentID})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeReviewerToken reverses EncodeReviewerToken.
func DecodeReviewerToken(token string) (email, assessmentID string, err error) {
	if token == "" {
		return "", "", ErrInvalidToken
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", "", ErrInvalidToken
	}

	var pair []string
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return "", "", ErrInvalidToken
	}
	if pair[0] == "" || pair[1] == "" {
		return "", "", ErrInvalidToken
	}
	return pair[0], pair[1], nil
}
