package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateReference(t *testing.T) {
	ref, err := GenerateReference()
	require.NoError(t, err)
	require.Len(t, ref, 28)
	require.True(t, strings.HasPrefix(ref, ReferencePrefix))
	require.Equal(t, strings.ToUpper(ref), ref)

	other, err := GenerateReference()
	require.NoError(t, err)
	require.NotEqual(t, ref, other)
}

func TestGenerateAccountNumber(t *testing.T) {
	for i := 0; i < 50; i++ {
		acct, err := GenerateAccountNumber()
		require.NoError(t, err)
		require.Len(t, acct, 10)
		require.NotEqual(t, byte('0'), acct[0])
		for _, r := range acct {
			require.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestGenerateSlug(t *testing.T) {
	slug, err := GenerateSlug(12)
	require.NoError(t, err)
	require.Len(t, slug, 12)
	require.Equal(t, strings.ToLower(slug), slug)
}

func TestGenerateInvoiceNumber(t *testing.T) {
	num, err := GenerateInvoiceNumber()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(num, "INV-"))
	require.Len(t, num, 14)
}
