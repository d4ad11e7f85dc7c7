package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"
	"github.com/lib/pq"
)

func TestClassifyPGError_NilIsNil(t *testing.T) {
	assert.Equal(t, nil, classifyPGError(nil))
}

func TestClassifyPGError_NoRowsBecomesNotFound(t *testing.T) {
	assert.Equal(t, true, errors.Is(classifyPGError(sql.ErrNoRows), ErrNotFound))
}

func TestClassifyPGError_UniqueViolationBecomesConstraintViolation(t *testing.T) {
	err := &pq.Error{Code: "23505"}
	assert.Equal(t, true, errors.Is(classifyPGError(err), ErrConstraintViolation))
}

func TestClassifyPGError_ForeignKeyViolationBecomesConstraintViolation(t *testing.T) {
	err := &pq.Error{Code: "23503"}
	assert.Equal(t, true, errors.Is(classifyPGError(err), ErrConstraintViolation))
}

func TestClassifyPGError_OtherErrorsBecomeStoreUnavailable(t *testing.T) {
	err := errors.New("connection refused")
	assert.Equal(t, true, errors.Is(classifyPGError(err), ErrStoreUnavailable))
}

func TestIsConstraintViolation_NonPQErrorIsFalse(t *testing.T) {
	assert.Equal(t, false, isConstraintViolation(errors.New("plain error")))
}

func TestIsConstraintViolation_RecognizesCheckAndNotNull(t *testing.T) {
	assert.Equal(t, true, isConstraintViolation(&pq.Error{Code: "23514"}))
	assert.Equal(t, true, isConstraintViolation(&pq.Error{Code: "23502"}))
}
