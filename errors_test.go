package bmpfs_test

import (
	"errors"
	"testing"

	"github.com/Sena2K/bmpfs"
	"github.com/stretchr/testify/assert"
)

func TestDriverErrorWithMessage(t *testing.T) {
	newErr := bmpfs.ErrNotFound.WithMessage("/missing")
	assert.Equal(t, "no such file or directory: /missing", newErr.Error())
	assert.ErrorIs(t, newErr, bmpfs.ErrNotFound)
}

func TestDriverErrorWrap(t *testing.T) {
	originalErr := errors.New("short read")
	newErr := bmpfs.ErrIO.Wrap(originalErr)

	assert.Equal(t, "input/output error: short read", newErr.Error())
	assert.ErrorIs(t, newErr, originalErr)
}

func TestDriverErrorErrno(t *testing.T) {
	assert.Equal(t, bmpfs.ENOSPC, bmpfs.ErrNoSpace.Errno())
}
