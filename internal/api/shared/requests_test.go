package shared

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionBody struct {
	UserID string `json:"user_id" validate:"required"`
	Symbol string `json:"symbol" validate:"required"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{
			name:        "valid json",
			requestBody: `{"user_id": "u1", "symbol": "600519"}`,
		},
		{
			name:        "malformed json",
			requestBody: `{"user_id": "u1",}`,
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:        "empty body",
			requestBody: "",
			wantErr:     true,
			errContains: "EOF",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test",
				bytes.NewBufferString(tc.requestBody))

			var body submissionBody
			err := DecodeJSON(req, &body)

			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", body.UserID)
			assert.Equal(t, "600519", body.Symbol)
		})
	}
}

// errorReader fails every read.
type errorReader struct{}

func (errorReader) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}

func TestDecodeJSONWithReadError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/test", errorReader{})

	var body submissionBody
	err := DecodeJSON(req, &body)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// selfValidating exercises the Validate-method branch of ValidateRequest.
type selfValidating struct {
	fail bool
}

var errSelfValidation = errors.New("self validation failed")

func (v *selfValidating) Validate() error {
	if v.fail {
		return errSelfValidation
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	t.Run("type with its own Validate method", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&selfValidating{}))
		assert.ErrorIs(t, ValidateRequest(&selfValidating{fail: true}), errSelfValidation)
	})

	t.Run("tag-based struct validation", func(t *testing.T) {
		assert.NoError(t, ValidateRequest(&submissionBody{UserID: "u1", Symbol: "600519"}))
		assert.Error(t, ValidateRequest(&submissionBody{UserID: "u1"}))
	})
}
