package utils

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/wagateway/pkg/constant"
)

type CustomValidator struct {
	Validator *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	Validator := &CustomValidator{validator.New()}
	Validator.ValidatorRegistery()
	return Validator
}

func (c *CustomValidator) ValidatorRegistery() {
	c.Validator.RegisterValidation("isphone", c.IsValidPhone)
}

// RegisterOn installs the custom rules on an existing validator engine, such
// as gin's binding validator.
func (c *CustomValidator) RegisterOn(v *validator.Validate) {
	v.RegisterValidation("isphone", c.IsValidPhone)
}

// IsValidPhone accepts a plain phone number or an already canonical address.
func (c *CustomValidator) IsValidPhone(fl validator.FieldLevel) bool {
	target := strings.TrimSpace(fl.Field().String())
	target = strings.TrimSuffix(target, constant.PERSON_SUFFIX)
	target = strings.TrimSuffix(target, constant.GROUP_SUFFIX)
	target = strings.TrimPrefix(target, "+")
	if len(target) < 8 || len(target) > 15 {
		return false
	}
	for _, char := range target {
		if !unicode.IsDigit(char) {
			return false
		}
	}
	return true
}
