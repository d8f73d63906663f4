package tenant

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/dd0wney/cluso-continuity/pkg/validation"
)

const (
	MinTenantIDLength = 3
	MaxTenantIDLength = 64
)

// ErrInvalidTenantID is returned by ValidateID. It wraps
// validation.ErrInvalidParameter.
var ErrInvalidTenantID = fmt.Errorf("%w: invalid tenant ID", validation.ErrInvalidParameter)

var tenantIDRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

// ValidateID checks length and character set of a tenant ID.
func ValidateID(id string) error {
	if len(id) < MinTenantIDLength || len(id) > MaxTenantIDLength {
		return fmt.Errorf("%w: must be %d-%d characters, got %d",
			ErrInvalidTenantID, MinTenantIDLength, MaxTenantIDLength, len(id))
	}
	if !tenantIDRegex.MatchString(id) {
		return fmt.Errorf("%w: %q must start with a letter or digit and contain only letters, digits, '-' and '_'",
			ErrInvalidTenantID, id)
	}
	return nil
}

// IsInvalid reports whether err came from ValidateID.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidTenantID)
}
