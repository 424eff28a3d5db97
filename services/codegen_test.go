package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixojiambo/customer-order-system/apperrors"

	"github.com/stretchr/testify/assert"
)

type fakeCodeSource struct {
	customerMax string
	customerErr error
	orderMax    string
	orderErr    error
	gotBucket   time.Time
}

func (f *fakeCodeSource) MaxCustomerCode(ctx context.Context) (string, error) {
	return f.customerMax, f.customerErr
}

func (f *fakeCodeSource) MaxOrderNumberInSecond(ctx context.Context, bucket time.Time) (string, error) {
	f.gotBucket = bucket
	return f.orderMax, f.orderErr
}

func fixedClock() time.Time {
	return time.Date(2024, 11, 2, 15, 4, 5, 0, time.UTC)
}

func newTestGenerator(source *fakeCodeSource) *CodeGenerator {
	g := NewCodeGenerator(source)
	g.now = fixedClock
	return g
}

func TestCustomerCode_EmptyHistory(t *testing.T) {
	g := newTestGenerator(&fakeCodeSource{})

	code, err := g.CustomerCode(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "CUST2024110215040501", code)
}

func TestCustomerCode_IncrementsFromGlobalMax(t *testing.T) {
	// The stored max carries an older timestamp; the sequence still continues
	// from its trailing digits.
	g := newTestGenerator(&fakeCodeSource{customerMax: "CUST2023010101010107"})

	code, err := g.CustomerCode(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "CUST2024110215040508", code)
}

func TestCustomerCode_SourceError(t *testing.T) {
	g := newTestGenerator(&fakeCodeSource{customerErr: errors.New("db down")})

	_, err := g.CustomerCode(context.Background())
	assert.Error(t, err)
}

func TestOrderCode_PrefixUppercased(t *testing.T) {
	g := newTestGenerator(&fakeCodeSource{})

	code, err := g.OrderCode(context.Background(), "laptop")
	assert.NoError(t, err)
	assert.Equal(t, "LA2024110215040501", code)
}

func TestOrderCode_SameSecondIncrement(t *testing.T) {
	source := &fakeCodeSource{orderMax: "LA2024110215040502"}
	g := newTestGenerator(source)

	code, err := g.OrderCode(context.Background(), "Laptop")
	assert.NoError(t, err)
	assert.Equal(t, "LA2024110215040503", code)

	// Lookup is scoped to the generating second.
	assert.Equal(t, fixedClock().Truncate(time.Second), source.gotBucket.Truncate(time.Second))
}

func TestOrderCode_ShortItemRejected(t *testing.T) {
	g := newTestGenerator(&fakeCodeSource{})

	_, err := g.OrderCode(context.Background(), "x")
	var appErr *apperrors.Error
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, 400, appErr.Code)
}

func TestNextSequence(t *testing.T) {
	assert.Equal(t, 1, nextSequence(""))
	assert.Equal(t, 1, nextSequence("C"))
	assert.Equal(t, 2, nextSequence("CUST2024110215040501"))
	assert.Equal(t, 100, nextSequence("CUST2024110215040599"))
	assert.Equal(t, 1, nextSequence("CUSTXX"))
}
