package httperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vitaliisemenov/reservo/internal/domain"
)

func TestFromDomain_InvalidQuantityIsDistinctFromInvalidInput(t *testing.T) {
	quantityErr := fmt.Errorf("%w: quantity must be >= 1", domain.ErrInvalidQuantity)
	apiErr := FromDomain(quantityErr)

	assert.Equal(t, CodeInvalidQuantity, apiErr.Code)
	assert.Equal(t, http.StatusBadRequest, apiErr.Code.StatusCode())

	genericErr := fmt.Errorf("%w: client id must not be empty", domain.ErrInvalidInput)
	apiErr2 := FromDomain(genericErr)

	assert.Equal(t, CodeInvalidInput, apiErr2.Code)
	assert.NotEqual(t, CodeInvalidQuantity, apiErr2.Code)
}

func TestFromDomain_UnclassifiedErrorBecomesOpaque500(t *testing.T) {
	apiErr := FromDomain(fmt.Errorf("some unwrapped failure"))

	assert.Equal(t, CodeInternal, apiErr.Code)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Code.StatusCode())
	assert.Equal(t, "an internal error occurred", apiErr.Message)
}
