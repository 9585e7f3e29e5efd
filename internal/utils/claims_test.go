package utils_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-payment-console/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestClaimStrings(t *testing.T) {
	t.Run("plain list", func(t *testing.T) {
		require.Equal(t, []string{"ROLE_ADMIN", "ROLE_CLIENT"}, utils.ClaimStrings([]any{"ROLE_ADMIN", 7, "ROLE_CLIENT"}))
	})

	t.Run("authority objects", func(t *testing.T) {
		var claim any
		require.NoError(t, json.Unmarshal([]byte(`[{"authority":"ROLE_ADMIN"},{"other":"x"}]`), &claim))
		require.Equal(t, []string{"ROLE_ADMIN"}, utils.ClaimStrings(claim))
	})

	t.Run("single value", func(t *testing.T) {
		require.Equal(t, []string{"ROLE_CLIENT"}, utils.ClaimStrings("ROLE_CLIENT"))
		require.Nil(t, utils.ClaimStrings(""))
		require.Nil(t, utils.ClaimStrings(42.0))
	})
}

func TestClaimInt64(t *testing.T) {
	for name, tc := range map[string]struct {
		in   any
		want int64
		ok   bool
	}{
		"float":       {in: 12.0, want: 12, ok: true},
		"json number": {in: json.Number("34"), want: 34, ok: true},
		"string":      {in: "56", want: 56, ok: true},
		"bad string":  {in: "abc", ok: false},
		"missing":     {in: nil, ok: false},
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := utils.ClaimInt64(tc.in)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPtr(t *testing.T) {
	p := utils.Ptr[int64](5)
	require.Equal(t, int64(5), *p)
	*p = 6
	require.NotSame(t, p, utils.Ptr[int64](6))
}
