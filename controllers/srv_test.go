package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"lsys/catalog"
	"lsys/identity"

	"github.com/stretchr/testify/assert"
)

func TestSafeGoto(t *testing.T) {
	cases := map[string]string{
		"":                 "/",
		"/book?bid=5":      "/book?bid=5",
		"//evil.example/x": "/",
		`/\evil.example`:   "/",
		"https://evil.com": "/",
		"book":             "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeGoto(in), in)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{identity.ErrValidation, http.StatusBadRequest},
		{identity.ErrInvalidCredentials, http.StatusUnauthorized},
		{identity.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("reserve: %w", catalog.ErrBookNotFound), http.StatusNotFound},
		{&identity.StorageError{Op: "create", Err: identity.ErrEmailTaken}, http.StatusConflict},
		{catalog.ErrStaleSnapshot, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
