package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixojiambo/customer-order-system/apperrors"
)

const (
	customerCodePrefix = "CUST"
	codeTimeLayout     = "20060102150405"
	codeSequenceWidth  = 2
)

// CodeSource supplies the max-lookup queries the generators increment from.
type CodeSource interface {
	MaxCustomerCode(ctx context.Context) (string, error)
	MaxOrderNumberInSecond(ctx context.Context, bucket time.Time) (string, error)
}

// CodeGenerator produces human-readable identifiers of the form
// <prefix><YYYYMMDDHHMMSS><2-digit-sequence> for users and orders. It only
// reads; uniqueness under concurrent writers is enforced by the unique index
// on the code column and the caller's retry loop.
type CodeGenerator struct {
	source CodeSource
	now    func() time.Time
}

func NewCodeGenerator(source CodeSource) *CodeGenerator {
	return &CodeGenerator{source: source, now: time.Now}
}

// CustomerCode generates the next customer code. The sequence continues from
// the trailing digits of the global maximum code on record, regardless of its
// timestamp; that matches the legacy numbering this system inherits.
func (g *CodeGenerator) CustomerCode(ctx context.Context) (string, error) {
	now := g.now()
	base := customerCodePrefix + now.Format(codeTimeLayout)

	max, err := g.source.MaxCustomerCode(ctx)
	if err != nil {
		return "", fmt.Errorf("customer code max lookup: %w", err)
	}

	return base + formatSequence(nextSequence(max)), nil
}

// OrderCode generates the next order number for an item. The sequence is
// scoped to orders created within the current calendar second. The item must
// be at least two characters; shorter items are rejected upstream at request
// validation.
func (g *CodeGenerator) OrderCode(ctx context.Context, item string) (string, error) {
	runes := []rune(item)
	if len(runes) < 2 {
		return "", apperrors.Validation("Item must be at least 2 characters.")
	}

	now := g.now()
	base := strings.ToUpper(string(runes[:2])) + now.Format(codeTimeLayout)

	max, err := g.source.MaxOrderNumberInSecond(ctx, now)
	if err != nil {
		return "", fmt.Errorf("order number max lookup: %w", err)
	}

	return base + formatSequence(nextSequence(max)), nil
}

// nextSequence increments the trailing two digits of the previous maximum
// code, or starts at 1 when there is none.
func nextSequence(max string) int {
	if len(max) < codeSequenceWidth {
		return 1
	}
	n, err := strconv.Atoi(max[len(max)-codeSequenceWidth:])
	if err != nil {
		return 1
	}
	return n + 1
}

func formatSequence(n int) string {
	return fmt.Sprintf("%0*d", codeSequenceWidth, n)
}
