package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
		wantErr  bool
	}{
		{name: "empty defaults to zero", value: "", expected: "0"},
		{name: "hex", value: "0xde0b6b3a7640000", expected: "1000000000000000000"},
		{name: "hex uppercase prefix", value: "0X1", expected: "1"},
		{name: "decimal passthrough", value: "12345", expected: "12345"},
		{name: "invalid hex", value: "0xzz", wantErr: true},
		{name: "fractional", value: "1.5", wantErr: true},
		{name: "negative", value: "-1", wantErr: true},
		{name: "garbage", value: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeValue(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseChainID(t *testing.T) {
	id, err := parseChainID("0x64")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), id)

	id, err = parseChainID("100")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), id)

	_, err = parseChainID("bogus")
	require.Error(t, err)

	_, err = parseChainID("0x")
	require.Error(t, err)
}

func TestNormalizeTxsChecksumsAddresses(t *testing.T) {
	txs, err := normalizeTxs([]TransactionParams{{
		To:    "0x57cb13cbef735fbdd65f5f2866638c546464e45f",
		Value: "0x0",
	}})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "0x57CB13cbef735FbDD65f5f2866638c546464E45F", txs[0].To)
	assert.Equal(t, "0", txs[0].Value)
	assert.Equal(t, "0x", txs[0].Data)
}
