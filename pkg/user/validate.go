package user

import (
	"fmt"
	"net/mail"
	"regexp"

	"forum/pkg/common"
)

const minLenPwd = 6

var usernameOK = regexp.MustCompile(`^[0-9a-zA-Z_]{3,32}$`).MatchString

func validateCredentials(c Credentials) error {
	if c.Username == "" {
		return fmt.Errorf("user: username is empty: %w", common.ErrValidation)
	}
	if !usernameOK(c.Username) {
		return fmt.Errorf("user: username format is invalid: %w", common.ErrValidation)
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return fmt.Errorf("user: email format is invalid: %w", common.ErrValidation)
	}
	if len(c.Password) < minLenPwd {
		return fmt.Errorf("user: password is too short: %w", common.ErrValidation)
	}
	return nil
}
