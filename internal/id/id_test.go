package id

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTxnID(t *testing.T) {
	tests := []struct {
		year, month, seq int
		want             string
	}{
		{2025, 1, 1, "TX-2025-01-001"},
		{2025, 12, 99, "TX-2025-12-099"},
		{2025, 1, 123, "TX-2025-01-123"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTxnID(tt.year, tt.month, tt.seq))
	}
}

func TestParseTxnID(t *testing.T) {
	year, month, seq, err := ParseTxnID("TX-2025-03-042")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 3, month)
	assert.Equal(t, 42, seq)
}

func TestParseTxnID_Invalid(t *testing.T) {
	for _, input := range []string{"", "2025-01-001", "TX-2025-13-001", "TX-abcd-01-001", "TX-2025-01-xyz", "RX-2025-01-001"} {
		_, _, _, err := ParseTxnID(input)
		assert.Error(t, err, "ParseTxnID(%q) should fail", input)
	}
}

func TestNextSeqID(t *testing.T) {
	assert.Equal(t, "M-0001", NextSeqID("M", nil))
	assert.Equal(t, "M-0004", NextSeqID("M", []string{"M-0001", "M-0003", "L-0009", "M-bogus"}))
}

func TestNewReceiptID(t *testing.T) {
	a := NewReceiptID()
	b := NewReceiptID()
	assert.NotEqual(t, a, b)
	require.True(t, strings.HasPrefix(a, "RC-"))
	_, err := uuid.Parse(strings.TrimPrefix(a, "RC-"))
	assert.NoError(t, err)
}
