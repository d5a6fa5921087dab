package cart

import "errors"

var (
	ErrDuplicateSubmission = errors.New("submission already in cart")
	ErrItemNotFound        = errors.New("cart item not found")
	ErrFormInvalid         = errors.New("form submission invalid")
)
