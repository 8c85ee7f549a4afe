package fat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLongNameAcceptsOrdinaryNames(t *testing.T) {
	require.NoError(t, ValidateLongName("readme.txt"))
	require.NoError(t, ValidateLongName("a"))
	require.NoError(t, ValidateLongName(strings.Repeat("a", 255)))
	require.NoError(t, ValidateLongName("$%'-_@~`!(){}. +,;=[]"))
	require.NoError(t, ValidateLongName("café.txt"))
}

func TestValidateLongNameRejectsBadLengths(t *testing.T) {
	require.Error(t, ValidateLongName(""))
	require.Error(t, ValidateLongName(strings.Repeat("a", 256)))
}

func TestValidateLongNameRejectsIllegalCharacters(t *testing.T) {
	require.Error(t, ValidateLongName("bad/name"))
	require.Error(t, ValidateLongName("bad\\name"))
	require.Error(t, ValidateLongName("bad:name"))
	require.Error(t, ValidateLongName("bad*name"))
	require.Error(t, ValidateLongName("bad?name"))
	require.Error(t, ValidateLongName("bad\"name"))
	require.Error(t, ValidateLongName("bad<name"))
	require.Error(t, ValidateLongName("bad>name"))
	require.Error(t, ValidateLongName("bad|name"))
}

func TestBuildShortNameUppercasesAndPads(t *testing.T) {
	sn, err := BuildShortName("foobar.txt")
	require.NoError(t, err)
	assert.Equal(t, "FOOBAR  TXT", string(sn[:]))
}

func TestBuildShortNameTruncatesLongComponents(t *testing.T) {
	sn, err := BuildShortName("verylongname.extension")
	require.NoError(t, err)
	assert.Equal(t, "VERYLONGEXT", string(sn[:]))
}

func TestBuildShortNameMapsIllegalCharsToQuestionMark(t *testing.T) {
	sn, err := BuildShortName("a,b;c=d.txt")
	require.NoError(t, err)
	assert.Equal(t, "A?B?C?D TXT", string(sn[:]))
}

func TestBuildShortNameMapsNonASCIIToQuestionMark(t *testing.T) {
	sn, err := BuildShortName("café.txt")
	require.NoError(t, err)
	assert.Equal(t, "CAF?    TXT", string(sn[:]))
}

func TestBuildShortNameHasNoExtensionWhenNameHasNone(t *testing.T) {
	sn, err := BuildShortName("readme")
	require.NoError(t, err)
	assert.Equal(t, "README     ", string(sn[:]))
}

func TestBuildShortNameLeadingDotIsPartOfBase(t *testing.T) {
	sn, err := BuildShortName(".bashrc")
	require.NoError(t, err)
	assert.Equal(t, "?BASHRC    ", string(sn[:]))
}

func TestBuildShortNameDoesNotSynthesizeCollisionSuffix(t *testing.T) {
	a, err := BuildShortName("samename.txt")
	require.NoError(t, err)
	b, err := BuildShortName("samename.txt")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildShortNameRejectsInvalidLongName(t *testing.T) {
	_, err := BuildShortName("")
	require.Error(t, err)
}
