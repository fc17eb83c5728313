/*
numbering.go - Human-facing document numbers

PURPOSE:
  Generates the numbers printed on documents: ORD-2508-00001,
  PAY-2508-00017 and so on. The middle segment is the year/month the
  document was created in; the sequence restarts every month.

COLLISION SAFETY:
  The next sequence is read from the highest existing number with the same
  period prefix, inside the caller's transaction. The UNIQUE constraint on
  the number column is the backstop: a concurrent writer that slipped in the
  same number surfaces as ErrDuplicateNumber instead of a silent duplicate.
*/
package warehouse

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type lastNumberFunc func(ctx context.Context, prefix string) (string, error)

// nextNumber produces the next document number for the given kind ("ORD",
// "PAY", "EXP", "TAX") in the month of now.
func nextNumber(ctx context.Context, now time.Time, kind string, last lastNumberFunc) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", kind, now.Format("0601"))

	latest, err := last(ctx, prefix)
	if err != nil {
		return "", err
	}

	seq := 1
	if latest != "" {
		if n, err := strconv.Atoi(strings.TrimPrefix(latest, prefix)); err == nil {
			seq = n + 1
		}
	}

	return fmt.Sprintf("%s%05d", prefix, seq), nil
}
