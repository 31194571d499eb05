package locator

import (
	"context"
	"testing"

	"github.com/codenav/codenav/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileFixture() *provider.Memory {
	return provider.NewMemory().
		AddFile("src/Models/User.cs").
		AddFile("src/Services/UserService.cs").
		AddFile("tests/Models/User.cs").
		AddFile("src/Program.cs")
}

func TestMatchExactPath(t *testing.T) {
	idx := NewLocationIndex(fileFixture())

	got, err := idx.Match(context.Background(), "src/Models/User.cs")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "src/Models/User.cs", got[0], "exact match ranks first")
}

func TestMatchPathSuffix(t *testing.T) {
	idx := NewLocationIndex(fileFixture())

	got, err := idx.Match(context.Background(), "Models/User.cs")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "src/Models/User.cs", got[0], "suffix matches sorted by path within rank")
	assert.Equal(t, "tests/Models/User.cs", got[1])
}

func TestMatchBasename(t *testing.T) {
	idx := NewLocationIndex(fileFixture())

	got, err := idx.Match(context.Background(), "User.cs")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMatchCaseInsensitive(t *testing.T) {
	idx := NewLocationIndex(fileFixture())

	got, err := idx.Match(context.Background(), "user.cs")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMatchGlob(t *testing.T) {
	idx := NewLocationIndex(fileFixture())

	got, err := idx.Match(context.Background(), "src/**/*.cs")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = idx.Match(context.Background(), "*Service.cs")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "src/Services/UserService.cs", got[0])
}

func TestMatchEmptyAndMiss(t *testing.T) {
	idx := NewLocationIndex(fileFixture())

	got, err := idx.Match(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = idx.Match(context.Background(), "DoesNotExist.cs")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSameFile(t *testing.T) {
	assert.True(t, SameFile("src/Models/User.cs", "User.cs"))
	assert.True(t, SameFile("/abs/path/User.cs", "src/Models/user.cs"))
	assert.False(t, SameFile("src/Models/User.cs", "Account.cs"))
	assert.False(t, SameFile("", "User.cs"))
	assert.False(t, SameFile("User.cs", ""))
}
