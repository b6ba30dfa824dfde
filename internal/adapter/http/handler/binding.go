package handler

import (
	"errors"

	"banking-ledger/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

// bindingError maps a request binding failure onto the ledger's validation
// codes. The first failing field decides; anything else is a malformed body.
func bindingError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Name":
			return apperror.ErrInvalidName()
		case "TaxID":
			return apperror.ErrInvalidTaxID()
		}
	}
	return apperror.Validation("malformed request body")
}
