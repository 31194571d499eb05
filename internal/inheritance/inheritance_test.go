package inheritance

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/codenav/codenav/internal/naverr"
	"github.com/codenav/codenav/internal/provider"
	"github.com/codenav/codenav/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeSym(id, name string, line int) types.Symbol {
	return types.Symbol{
		ID:   id,
		Name: name,
		Kind: types.SymbolKindType,
		Locations: []types.Location{{
			File:      name + ".cs",
			StartLine: line,
			EndLine:   line + 50,
		}},
	}
}

// chainFixture: C derives from B derives from A; A implements IBase,
// B additionally implements IMore which extends IBase.
func chainFixture() *provider.Memory {
	return provider.NewMemory().
		AddSymbol(typeSym("t.a", "A", 1)).
		AddSymbol(typeSym("t.b", "B", 1)).
		AddSymbol(typeSym("t.c", "C", 1)).
		AddSymbol(typeSym("i.base", "IBase", 1)).
		AddSymbol(typeSym("i.more", "IMore", 1)).
		SetBases("t.b", "t.a").
		SetBases("t.c", "t.b").
		SetInterfaces("t.a", "i.base").
		SetInterfaces("t.b", "i.more").
		SetInterfaces("i.more", "i.base")
}

func TestBuildRejectsNonType(t *testing.T) {
	m := types.Symbol{ID: "m.1", Name: "Run", Kind: types.SymbolKindMethod}
	_, err := New(provider.NewMemory().AddSymbol(m)).Build(context.Background(), m, Options{})
	var wrongKind *naverr.WrongKindError
	assert.True(t, errors.As(err, &wrongKind))
}

func TestBuildBaseChainNearestFirst(t *testing.T) {
	source := chainFixture()
	root := typeSym("t.c", "C", 1)

	tree, err := New(source).Build(context.Background(), root, Options{})
	require.NoError(t, err)

	require.Len(t, tree.BaseTypes, 2)
	assert.Equal(t, "t.b", tree.BaseTypes[0].ID, "immediate base first")
	assert.Equal(t, "t.a", tree.BaseTypes[1].ID)
}

func TestBuildFollowsAllBases(t *testing.T) {
	source := provider.NewMemory().
		AddSymbol(typeSym("t.root", "Root", 1)).
		AddSymbol(typeSym("t.b1", "First", 1)).
		AddSymbol(typeSym("t.b2", "Second", 1)).
		AddSymbol(typeSym("t.g", "Grand", 1)).
		AddSymbol(typeSym("i.second", "ISecond", 1)).
		SetBases("t.root", "t.b1", "t.b2").
		SetBases("t.b1", "t.g").
		SetInterfaces("t.b2", "i.second")
	root := typeSym("t.root", "Root", 1)

	tree, err := New(source).Build(context.Background(), root, Options{})
	require.NoError(t, err)

	ids := make([]string, len(tree.BaseTypes))
	for i, base := range tree.BaseTypes {
		ids[i] = base.ID
	}
	assert.Equal(t, []string{"t.b1", "t.b2", "t.g"}, ids, "direct bases before their ancestors")

	require.Len(t, tree.Interfaces, 1)
	assert.Equal(t, "i.second", tree.Interfaces[0].ID, "interfaces of every base, not just the first")
}

func TestBuildInterfaceClosure(t *testing.T) {
	source := chainFixture()
	root := typeSym("t.c", "C", 1)

	tree, err := New(source).Build(context.Background(), root, Options{})
	require.NoError(t, err)

	ids := make([]string, len(tree.Interfaces))
	for i, iface := range tree.Interfaces {
		ids[i] = iface.ID
	}
	assert.ElementsMatch(t, []string{"i.more", "i.base"}, ids, "inherited and extended interfaces, deduplicated")
}

func TestBuildDerivedDepthSemantics(t *testing.T) {
	source := chainFixture()
	root := typeSym("t.a", "A", 1)

	tree, err := New(source).Build(context.Background(), root, Options{IncludeDerived: true, MaxDerivedDepth: 3})
	require.NoError(t, err)

	require.Len(t, tree.Derived, 2)
	assert.Equal(t, "t.b", tree.Derived[0].Symbol.ID)
	assert.Equal(t, 1, tree.Derived[0].Depth)
	assert.Equal(t, "t.c", tree.Derived[1].Symbol.ID)
	assert.Equal(t, 2, tree.Derived[1].Depth)
	assert.Equal(t, 2, tree.DerivedDepthReached, "depth reached is the deepest producing level")
	assert.False(t, tree.DerivedTruncated)
}

func TestBuildDerivedTruncationFlag(t *testing.T) {
	source := provider.NewMemory()
	// Linear chain T0 <- T1 <- ... <- T5
	for i := 0; i <= 5; i++ {
		source.AddSymbol(typeSym(fmt.Sprintf("t.%d", i), fmt.Sprintf("T%d", i), 1))
	}
	for i := 1; i <= 5; i++ {
		source.SetBases(fmt.Sprintf("t.%d", i), fmt.Sprintf("t.%d", i-1))
	}
	root := typeSym("t.0", "T0", 1)

	bounded, err := New(source).Build(context.Background(), root, Options{IncludeDerived: true, MaxDerivedDepth: 3})
	require.NoError(t, err)
	assert.Len(t, bounded.Derived, 3)
	assert.Equal(t, 3, bounded.DerivedDepthReached)
	assert.True(t, bounded.DerivedTruncated, "subtypes exist beyond the bound")

	full, err := New(source).Build(context.Background(), root, Options{IncludeDerived: true, MaxDerivedDepth: 5})
	require.NoError(t, err)
	assert.Len(t, full.Derived, 5)
	assert.False(t, full.DerivedTruncated, "hierarchy ends exactly at the bound")
}

func TestBuildWithoutDerived(t *testing.T) {
	source := chainFixture()
	root := typeSym("t.a", "A", 1)

	tree, err := New(source).Build(context.Background(), root, Options{})
	require.NoError(t, err)
	assert.Empty(t, tree.Derived)
	assert.Zero(t, tree.DerivedDepthReached)
}

func TestBuildRootWithNoRelations(t *testing.T) {
	lone := typeSym("t.lone", "Standalone", 1)
	source := provider.NewMemory().AddSymbol(lone)

	tree, err := New(source).Build(context.Background(), lone, Options{IncludeDerived: true})
	require.NoError(t, err)
	assert.Empty(t, tree.BaseTypes)
	assert.Empty(t, tree.Interfaces)
	assert.Empty(t, tree.Derived)
}

func TestBuildSurvivesInheritanceCycle(t *testing.T) {
	source := provider.NewMemory().
		AddSymbol(typeSym("t.x", "X", 1)).
		AddSymbol(typeSym("t.y", "Y", 1)).
		SetBases("t.x", "t.y").
		SetBases("t.y", "t.x")
	root := typeSym("t.x", "X", 1)

	tree, err := New(source).Build(context.Background(), root, Options{IncludeDerived: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"t.y"}, []string{tree.BaseTypes[0].ID})
}

func TestBuildProviderErrorPropagates(t *testing.T) {
	boom := errors.New("workspace closed")
	root := typeSym("t.a", "A", 1)
	source := chainFixture().FailWith(boom)

	_, err := New(source).Build(context.Background(), root, Options{})
	assert.ErrorIs(t, err, boom)
}
