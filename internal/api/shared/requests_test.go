package shared

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid json", `{"title": "write tests", "limit": 3}`, false},
		{"trailing comma", `{"title": "x",}`, true},
		{"empty body", ``, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var target struct {
				Title string `json:"title"`
				Limit int    `json:"limit"`
			}

			err := DecodeJSON(req, &target)

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "write tests", target.Title)
			assert.Equal(t, 3, target.Limit)
		})
	}
}

type selfValidating struct{ ok bool }

func (s selfValidating) Validate() error {
	if !s.ok {
		return errors.New("not ok")
	}
	return nil
}

func TestValidateRequest(t *testing.T) {
	assert.NoError(t, ValidateRequest(selfValidating{ok: true}))
	assert.Error(t, ValidateRequest(selfValidating{ok: false}))

	type tagged struct {
		Name string `validate:"required,min=3"`
	}
	assert.NoError(t, ValidateRequest(tagged{Name: "bob"}))
	assert.Error(t, ValidateRequest(tagged{Name: "x"}))
}
