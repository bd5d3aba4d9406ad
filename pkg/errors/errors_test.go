package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/passkeyradar/radar/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "combined",
			ID:       "2024-03-01-00-00-00",
		}
		assert.Equal(t, "combined with ID 2024-03-01-00-00-00 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("merged", "x")
		wrapped := fmt.Errorf("loading: %w", base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("date_range.start", "yesterday", "must be YYYY-MM-DD")
		assert.Equal(t, "validation failed for field date_range.start: must be YYYY-MM-DD", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty request"}
		assert.Equal(t, "validation failed: empty request", err.Error())
	})
}

func TestMissingFieldError(t *testing.T) {
	err := pkgerrors.NewMissingFieldError("passkeys.com", "name", 3)
	assert.Equal(t, `source passkeys.com: record 3 is missing required field "name"`, err.Error())
	assert.True(t, pkgerrors.IsMissingField(err))
	assert.False(t, pkgerrors.IsNotFound(err))

	t.Run("joined errors keep their identity", func(t *testing.T) {
		joined := pkgerrors.Join(
			pkgerrors.NewMissingFieldError("enpass", "domain", 0),
			pkgerrors.NewMissingFieldError("hideez", "name", 1),
		)
		var mf *pkgerrors.MissingFieldError
		require.True(t, errors.As(joined, &mf))
		assert.Equal(t, "enpass", mf.Source)
		assert.True(t, pkgerrors.IsMissingField(joined))
	})
}

func TestSchemaError(t *testing.T) {
	err := &pkgerrors.SchemaError{Document: "aliases", Violations: []string{"a: bad", "b: worse"}}
	assert.Equal(t, "aliases does not match schema: a: bad; b: worse", err.Error())
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestConfigError(t *testing.T) {
	base := errors.New("no such file")
	err := pkgerrors.NewConfigError("aliases", "cannot load alias table", base)
	assert.Contains(t, err.Error(), "aliases")
	assert.Contains(t, err.Error(), "cannot load alias table")
	assert.Equal(t, base, err.Unwrap())
}

func TestIOError(t *testing.T) {
	t.Run("with path", func(t *testing.T) {
		base := errors.New("permission denied")
		err := pkgerrors.NewIOError("read", "/data/combined/x.json", base)
		assert.Equal(t, "IO error during read of /data/combined/x.json: permission denied", err.Error())
		assert.True(t, errors.Is(err, base))
	})

	t.Run("without path", func(t *testing.T) {
		err := &pkgerrors.IOError{Operation: "list", Message: "closed"}
		assert.Equal(t, "IO error during list: closed", err.Error())
	})
}

func TestParseError(t *testing.T) {
	err := pkgerrors.NewParseError("json", "a.json", "unexpected end", nil)
	assert.Equal(t, "parse error in json file a.json: unexpected end", err.Error())

	err = pkgerrors.NewParseError("timestamp", "", "bad layout", nil)
	assert.Equal(t, "timestamp parse error: bad layout", err.Error())
}

func TestResourceError(t *testing.T) {
	base := errors.New("boom")
	err := pkgerrors.NewResourceError("merge", "combined", "2024-01-01-00-00-00", base)
	assert.Equal(t, "failed to merge combined 2024-01-01-00-00-00: boom", err.Error())
	assert.ErrorIs(t, err, base)

	err = pkgerrors.NewResourceError("load", "aliases", "", base)
	assert.Equal(t, "failed to load aliases: boom", err.Error())
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("json", "x", nil))
	assert.NoError(t, pkgerrors.WrapValidation("x", nil))
	assert.NoError(t, pkgerrors.WrapResource("merge", "combined", "x", nil))

	base := errors.New("bad")
	var ioErr *pkgerrors.IOError
	require.ErrorAs(t, pkgerrors.WrapIO("write", "out.json", base), &ioErr)
	assert.Equal(t, "write", ioErr.Operation)

	var parseErr *pkgerrors.ParseError
	require.ErrorAs(t, pkgerrors.WrapParse("json", "in.json", base), &parseErr)
	assert.Equal(t, "in.json", parseErr.File)

	assert.True(t, pkgerrors.IsValidationError(pkgerrors.WrapValidation("f", base)))
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, pkgerrors.IsCanceled(fmt.Errorf("task: %w", pkgerrors.ErrCanceled)))
	assert.False(t, pkgerrors.IsCanceled(base()))
}

func base() error { return errors.New("other") }
