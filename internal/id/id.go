package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// TxnPrefix starts every transaction ID.
const TxnPrefix = "TX"

// FormatTxnID returns a transaction ID like "TX-2025-01-001".
func FormatTxnID(year, month, seq int) string {
	return fmt.Sprintf("%s-%04d-%02d-%03d", TxnPrefix, year, month, seq)
}

// ParseTxnID parses "TX-2025-01-001" into year, month, seq.
func ParseTxnID(id string) (year, month, seq int, err error) {
	parts := strings.Split(id, "-")
	if len(parts) != 4 || parts[0] != TxnPrefix {
		return 0, 0, 0, fmt.Errorf("invalid transaction ID format: %q", id)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid year in transaction ID %q: %w", id, err)
	}

	month, err = strconv.Atoi(parts[2])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, 0, fmt.Errorf("invalid month in transaction ID %q", id)
	}

	seq, err = strconv.Atoi(parts[3])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", id, err)
	}

	return year, month, seq, nil
}

// FormatSeqID returns a zero-padded identifier like "M-0007" or "L-0012".
func FormatSeqID(prefix string, seq int) string {
	return fmt.Sprintf("%s-%04d", prefix, seq)
}

// NextSeqID returns the next FormatSeqID value after the highest one in existing.
// IDs that don't carry the prefix are ignored.
func NextSeqID(prefix string, existing []string) string {
	maxSeq := 0
	for _, e := range existing {
		rest, ok := strings.CutPrefix(e, prefix+"-")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > maxSeq {
			maxSeq = n
		}
	}
	return FormatSeqID(prefix, maxSeq+1)
}

// NewReceiptID returns a random receipt identifier.
func NewReceiptID() string {
	return "RC-" + uuid.NewString()
}
