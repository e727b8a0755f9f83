package auth

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/JMURv/fieldlog/internal/auth/jwt"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/dto"
	md "github.com/JMURv/fieldlog/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Core is everything the controller and middleware need from the auth layer.
type Core interface {
	jwt.Port
	ComparePasswords(hashed, pswd []byte) error
}

type Auth struct {
	*jwt.Core
}

func New(conf config.Config) *Auth {
	return &Auth{Core: jwt.New(conf)}
}

func (a *Auth) ComparePasswords(hashed, pswd []byte) error {
	if err := bcrypt.CompareHashAndPassword(hashed, pswd); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashToken is how refresh tokens are stored and looked up.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func GenerateDevice(d *dto.DeviceRequest) md.Device {
	if d == nil {
		return md.Device{}
	}

	name := d.Name
	if name == "" {
		name = d.UA
	}

	return md.Device{
		Name: name,
		UA:   d.UA,
		IP:   d.IP,
	}
}
