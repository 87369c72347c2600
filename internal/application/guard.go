package application

import (
	"fmt"

	"fxconvert-service/internal/domain"
)

// AuthorizeAdmin admits only a signing caller whose key is the program
// authority.
func AuthorizeAdmin(caller *domain.Account, authority domain.Identity) error {
	if caller == nil || !caller.IsSigner {
		return fmt.Errorf("%w: caller did not sign", domain.ErrUnauthorized)
	}
	if !caller.Key.Equals(authority) {
		return fmt.Errorf("%w: %s is not the program authority", domain.ErrUnauthorized, caller.Key)
	}
	return nil
}
