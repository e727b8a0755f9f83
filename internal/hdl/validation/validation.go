package validation

import (
	"errors"
	"fmt"
	"sync"

	md "github.com/JMURv/fieldlog/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// V returns the shared validator with the custom rules registered.
func V() *validator.Validate {
	once.Do(
		func() {
			instance = validator.New(validator.WithRequiredStructEnabled())
			_ = instance.RegisterValidation("platform", platform)
		},
	)
	return instance
}

func platform(fl validator.FieldLevel) bool {
	return md.Platform(fl.Field().String()).Valid()
}

// Struct validates s and flattens the failures into readable messages.
func Struct(s any) []string {
	err := V().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed on the '%s' rule", fe.Field(), fe.Tag()))
	}
	return msgs
}
