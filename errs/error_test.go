package errs

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeAndMessage(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", Errorf(ENOTFOUND, "The tweet does not exist."))

	assert.Equal(t, ENOTFOUND, ErrorCode(wrapped))
	assert.Equal(t, "The tweet does not exist.", ErrorMessage(wrapped))

	plain := errors.New("connection refused")
	assert.Equal(t, EINTERNAL, ErrorCode(plain))
	assert.Equal(t, "Internal error.", ErrorMessage(plain))

	assert.Empty(t, ErrorCode(nil))
	assert.Empty(t, ErrorMessage(nil))
}

func TestStatusCode(t *testing.T) {
	tests := map[string]int{
		EINVALID:      http.StatusBadRequest,
		EUNAUTHORIZED: http.StatusUnauthorized,
		EFORBIDDEN:    http.StatusForbidden,
		ENOTFOUND:     http.StatusNotFound,
		EINTERNAL:     http.StatusInternalServerError,
		"bogus":       http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, StatusCode(code), code)
	}
}

func returnError(t *testing.T, err error) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ReturnError(w, r, err)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestReturnErrorDetail(t *testing.T) {
	status, body := returnError(t, Errorf(EFORBIDDEN, "You can only edit your own tweets."))

	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, map[string]interface{}{"detail": "You can only edit your own tweets."}, body)
}

func TestReturnErrorFieldMap(t *testing.T) {
	err := Invalid(
		Field("username", "This field is required."),
		Field("password", "This field is required."),
		Field("password", "Ensure this field has at least 8 characters."),
	)
	status, body := returnError(t, err)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []interface{}{"This field is required."}, body["username"])
	assert.Equal(t, []interface{}{
		"This field is required.",
		"Ensure this field has at least 8 characters.",
	}, body["password"])
	assert.NotContains(t, body, "detail")
}

func TestReturnErrorMasksInternalErrors(t *testing.T) {
	status, body := returnError(t, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal error.", body["detail"])
}

func TestJoin(t *testing.T) {
	assert.NoError(t, Join())
	assert.NoError(t, Join(nil, nil))

	err := Join(
		Invalid(Field("username", "This field is required.")),
		nil,
		Invalid(
			Field("username", "A user with that username already exists."),
			Field("password", "Ensure this field has at least 8 characters."),
			Field("password", "This password is too common."),
		),
	)
	require.Equal(t, EINVALID, ErrorCode(err))
	assert.Equal(t, []FieldError{
		Field("username", "This field is required."),
		Field("password", "Ensure this field has at least 8 characters."),
		Field("password", "This password is too common."),
	}, ErrorFields(err))

	internal := errors.New("connection refused")
	assert.Equal(t, internal, Join(Invalid(Field("username", "This field is required.")), internal))
	assert.Equal(t, IdInvalid, Join(IdInvalid, Invalid(Field("payload", "This field is required."))))
}
