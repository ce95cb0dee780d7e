package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeEmptyReturnsDefaults(t *testing.T) {
	s, err := Merge(nil)
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestMergePartialKeepsDefaults(t *testing.T) {
	s, err := Merge([]byte(`{"syncToWorldInfo":true,"somethingElse":42}`))
	require.NoError(t, err)

	want := Defaults()
	want.SyncToWorldInfo = true
	assert.Equal(t, want, s)
}

func TestMergeTypeMismatch(t *testing.T) {
	s, err := Merge([]byte(`{"historyLimit":"lots"}`))
	assert.Error(t, err)
	assert.Equal(t, Defaults(), s)

	s, err = Merge([]byte(`{"historyLimit":-3}`))
	assert.Error(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestMergeUnknownSource(t *testing.T) {
	s, err := Merge([]byte(`{"apiSource":"carrier-pigeon"}`))
	require.NoError(t, err)
	assert.Equal(t, SourceMain, s.APISource)
}

func TestValidate(t *testing.T) {
	s := Defaults()
	assert.NoError(t, s.Validate())

	s.APISource = SourceIndependent
	assert.ErrorIs(t, s.Validate(), ErrIndependentIncomplete)

	s.IndepAPIURL = "http://localhost:8000/v1"
	assert.ErrorIs(t, s.Validate(), ErrIndependentIncomplete)

	s.IndepAPIModel = "qwen2.5"
	assert.NoError(t, s.Validate())
}

func TestRedactedRoundTrip(t *testing.T) {
	s := Defaults()
	s.IndepAPIKey = "sk-abcdef1234"

	r := s.Redacted()
	assert.Equal(t, "*********1234", r.IndepAPIKey)
	assert.Equal(t, "sk-abcdef1234", r.WithKeyFrom(s).IndepAPIKey)

	r.IndepAPIKey = "sk-new"
	assert.Equal(t, "sk-new", r.WithKeyFrom(s).IndepAPIKey)
}
