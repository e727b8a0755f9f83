package jwt

import "errors"

var ErrWhileCreatingToken = errors.New("error while creating token")
var ErrUnexpectedSignMethod = errors.New("unexpected signing method")

var (
	ErrMissingToken   = errors.New("missing token")
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
	ErrInvalidToken   = errors.New("invalid token")
)

// RejectionKind classifies why an access token was refused.
type RejectionKind int

const (
	RejectionNone RejectionKind = iota
	RejectionMissing
	RejectionMalformed
	RejectionExpired
	RejectionOther
)

func (k RejectionKind) String() string {
	switch k {
	case RejectionNone:
		return "none"
	case RejectionMissing:
		return "missing"
	case RejectionMalformed:
		return "malformed"
	case RejectionExpired:
		return "expired"
	default:
		return "other"
	}
}

func KindOf(err error) RejectionKind {
	switch {
	case err == nil:
		return RejectionNone
	case errors.Is(err, ErrMissingToken):
		return RejectionMissing
	case errors.Is(err, ErrMalformedToken):
		return RejectionMalformed
	case errors.Is(err, ErrTokenExpired):
		return RejectionExpired
	default:
		return RejectionOther
	}
}
