package result

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureStatus(t *testing.T) {
	cases := []struct {
		f    *Failure
		want int
	}{
		{Invalid("validation.required", Args{"field": "reason"}), http.StatusBadRequest},
		{NotFound("service.serviceNotFound"), http.StatusNotFound},
		{Conflict("service.serviceWithFriendlyNameAlreadyExists"), http.StatusBadRequest},
		{Unauthorized(KeyUnauthorizedAction), http.StatusUnauthorized},
		{&Failure{Kind: KindInternal}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.f.Status(), tc.f.Error())
	}
}

func TestFailureUnwrapsThroughWrappedErrors(t *testing.T) {
	err := fmt.Errorf("validate: %w", NotFound("client.clientNotFound"))

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, KindNotFound, f.Kind)
	assert.Equal(t, "client.clientNotFound", f.Key)
}

func TestFromFailureKeepsKeyAndArgs(t *testing.T) {
	r := FromFailure(Invalid("validation.required", Args{"field": "friendlyName"}))

	assert.True(t, r.Failed())
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "friendlyName", r.Args["field"])
	assert.Nil(t, r.Data)
}

func TestInternalHidesDetail(t *testing.T) {
	r := Internal()

	assert.Equal(t, http.StatusInternalServerError, r.Status)
	assert.Equal(t, KeyServerError, r.Key)
	assert.Empty(t, r.Args)
}

func TestSuccessResults(t *testing.T) {
	assert.False(t, OK("k", 1).Failed())
	assert.Equal(t, http.StatusCreated, Created("k", nil).Status)
}
