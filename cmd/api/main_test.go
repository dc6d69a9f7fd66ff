package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"empty", "", errSecretMissing},
		{"short", "abc123", errSecretShort},
		{"repeated placeholder", strings.Repeat("secret", 6), errSecretWeak},
		{"placeholder with digits", "password" + strings.Repeat("1", 30), errSecretWeak},
		{"strong", "f3b9c1d8e7a2405b9c6d1e0f8a7b6c5d", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := jwtSecret(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, []byte(tt.raw), got)
		})
	}
}
