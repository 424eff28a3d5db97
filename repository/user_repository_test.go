package repository_test

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/felixojiambo/customer-order-system/models"
	"github.com/felixojiambo/customer-order-system/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	assert.NoError(t, err)
	return gormDB, mock
}

func TestUserCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormUserRepository(gormDB)

	user := &models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		Password:     "hashed",
		PhoneNumber:  "+254711000111",
		UID:          "firebase-uid",
		CustomerCode: "CUST2024110215040501",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), user)
	assert.NoError(t, err)
}

func TestUserCreate_UniqueViolation(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormUserRepository(gormDB)

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_customer_code"}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(pgErr)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		CustomerCode: "CUST2024110215040501",
	})
	assert.Error(t, err)

	constraint, ok := repository.UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "idx_users_customer_code", constraint)
}

func TestUserFindByUID_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormUserRepository(gormDB)

	id := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "username", "email", "phone_number", "uid", "customer_code", "created_at", "updated_at"}).
		AddRow(id, "alice", "alice@example.com", "+254711000111", "firebase-uid", "CUST2024110215040501", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WithArgs("firebase-uid", 1).
		WillReturnRows(rows)

	user, err := repo.FindByUID(context.Background(), "firebase-uid")
	assert.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "CUST2024110215040501", user.CustomerCode)
}

func TestUserFindByUID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormUserRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WithArgs("missing-uid", 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	user, err := repo.FindByUID(context.Background(), "missing-uid")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, user)
}

func TestMaxCustomerCode_Value(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormUserRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(customer_code) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow("CUST2024110215040507"))

	max, err := repo.MaxCustomerCode(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "CUST2024110215040507", max)
}

func TestMaxCustomerCode_Empty(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormUserRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(customer_code) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	max, err := repo.MaxCustomerCode(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "", max)
}

func TestUniqueViolation_Classification(t *testing.T) {
	wrapped := fmt.Errorf("create user: %w", &pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	constraint, ok := repository.UniqueViolation(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "idx_users_email", constraint)

	_, ok = repository.UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)

	_, ok = repository.UniqueViolation(errors.New("plain error"))
	assert.False(t, ok)
}
