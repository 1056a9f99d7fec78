package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adithyabsk/portfoliohut/internal/api/request"
	"github.com/adithyabsk/portfoliohut/internal/model"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,64}$`)

// ValidateCreateProfile validates a profile creation request.
//
// Required fields:
//   - username: 3 to 64 letters, digits, '_', '.' or '-'
//   - displayName: non-empty, max 100 characters
//
// Optional fields:
//   - visibility: public (default) or private
func ValidateCreateProfile(req request.CreateProfileRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Username) == "" {
		errors["username"] = "username is required"
	} else if !usernamePattern.MatchString(req.Username) {
		errors["username"] = "username must be 3-64 letters, digits, '_', '.' or '-'"
	}

	if strings.TrimSpace(req.DisplayName) == "" {
		errors["displayName"] = "displayName is required"
	} else if len(req.DisplayName) > 100 {
		errors["displayName"] = "displayName must be 100 characters or less"
	}

	switch model.Visibility(strings.ToLower(req.Visibility)) {
	case "", model.VisibilityPublic, model.VisibilityPrivate:
	default:
		errors["visibility"] = fmt.Sprintf("invalid visibility: %s", req.Visibility)
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
