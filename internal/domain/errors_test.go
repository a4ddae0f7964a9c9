package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{"without cause", ValidationError("email is invalid", nil), "[validation] email is invalid"},
		{"with cause", DataAccessError("list vehicles", errors.New("conn refused")), "[data_access] list vehicles: conn refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestDomainError_IsByKind(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", NotFoundError("vehicle asya", cause))

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrorTypeNotFound, TypeOf(err))
	assert.Equal(t, ErrorType(""), TypeOf(cause))
}

func TestDomainError_IsRequiresBareTarget(t *testing.T) {
	a := APIError("register", nil)
	b := APIError("operator request", nil)
	assert.False(t, errors.Is(a, b))
	assert.True(t, errors.Is(a, ErrAPI))
}
