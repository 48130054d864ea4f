package auth

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokens_IssueVerify(t *testing.T) {
	tokens := New("test-secret", time.Minute)

	raw, err := tokens.Issue("alice")
	require.NoError(t, err)

	sub, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
}

func TestTokens_Verify(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		raw, err := New("one", time.Minute).Issue("alice")
		require.NoError(t, err)

		_, err = New("two", time.Minute).Verify(raw)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		tokens := New("secret", time.Minute)
		tokens.now = func() time.Time { return time.Now().Add(-time.Hour) }
		raw, err := tokens.Issue("alice")
		require.NoError(t, err)

		_, err = New("secret", time.Minute).Verify(raw)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := New("secret", 0).Verify("not-a-token")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("empty subject", func(t *testing.T) {
		_, err := New("secret", 0).Issue("")
		assert.Error(t, err)
	})
}

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{name: "bearer", header: "Bearer abc", want: "abc"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "missing", header: "", wantErr: true},
		{name: "basic", header: "Basic abc", wantErr: true},
		{name: "no token", header: "Bearer ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/clickhouse/tables", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			got, err := FromRequest(req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMissingToken)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
