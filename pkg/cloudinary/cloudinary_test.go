package cloudinary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildPublicIDSanitizesName(t *testing.T) {
	id := buildPublicID("My Cat!.png")
	require.True(t, strings.HasPrefix(id, "My-Cat-"), "got %q", id)
	require.NotContains(t, id, " ")
	require.NotContains(t, id, "!")
	require.NotContains(t, id, ".")
}

func TestBuildPublicIDFallsBackForUnusableName(t *testing.T) {
	id := buildPublicID("!!!.png")
	require.True(t, strings.HasPrefix(id, "attachment-"), "got %q", id)
}
