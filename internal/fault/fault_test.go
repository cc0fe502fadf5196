package fault

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf_Classified(t *testing.T) {
	err := New(KindAuthenticity, "signature mismatch")
	assert.Equal(t, KindAuthenticity, KindOf(err))
	assert.True(t, IsKind(err, KindAuthenticity))
	assert.False(t, IsKind(err, KindValidation))
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	inner := New(KindConflict, "invoice exists")
	wrapped := errors.Wrap(inner, "issue invoice")

	assert.Equal(t, KindConflict, KindOf(wrapped))
}

type kindedErr struct{}

func (kindedErr) Error() string { return "quantity must be greater than 0" }
func (kindedErr) Kind() Kind    { return KindValidation }

func TestKindOf_ForeignKindedError(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(kindedErr{}))
	assert.Equal(t, KindValidation, KindOf(errors.Wrap(kindedErr{}, "place order")))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestWrap_NilCause(t *testing.T) {
	require.NoError(t, Wrap(KindDependency, nil, "gateway"))
}

func TestWrap_CausePreserved(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindDependency, cause, "open session")

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "open session: connection refused", err.Error())
}
