package csharp

import (
	"context"
	"testing"

	"github.com/codenav/codenav/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decisionsFixture(t *testing.T) *Workspace {
	t.Helper()
	root := writeWorkspace(t, map[string]string{
		"Decisions.cs": `namespace Acme.Flow
{
    public class Decisions
    {
        public int Straight(int a) { return a + 1; }

        public int Branch(int a)
        {
            if (a > 0) { return 1; }
            return 0;
        }

        public int Ternary(int a) { return a > 0 ? a : -a; }

        public int Abs(int a) => a < 0 ? -a : a;

        public string Fallback(string s) { return s ?? "empty"; }

        public bool Guard(bool a, bool b) { return a && b; }

        public string Pick(int a)
        {
            return a switch
            {
                1 => "one",
                2 => "two",
                _ => "many",
            };
        }

        public int Classic(int a)
        {
            switch (a)
            {
                case 1:
                    return 1;
                case 2:
                case 3:
                    return 23;
                default:
                    return 0;
            }
        }

        public int Loops(int[] items)
        {
            var total = 0;
            for (var i = 0; i < items.Length; i++) { total += i; }
            foreach (var item in items) { total += item; }
            while (total > 100) { total -= 1; }
            return total;
        }

        public int Guarded(int a)
        {
            try { return 10 / a; }
            catch (DivideByZeroException) { return 0; }
        }
    }

    public interface IDecider
    {
        int Decide(int a);
    }
}
`,
	})

	ws, err := Load(context.Background(), root)
	require.NoError(t, err)
	return ws
}

func methodComplexity(t *testing.T, ws *Workspace, name string) int {
	t.Helper()
	sym := findOne(t, ws, name, types.KindFilterMethod)
	complexity, err := ws.Complexity(context.Background(), sym)
	require.NoError(t, err)
	return complexity
}

func TestComplexityPerDecisionPoint(t *testing.T) {
	ws := decisionsFixture(t)

	tests := []struct {
		method string
		want   int
	}{
		{"Straight", 1},
		{"Branch", 2},
		{"Ternary", 2},
		{"Abs", 2},
		{"Fallback", 2},
		{"Guard", 2},
		{"Pick", 3},    // two arms, discard is the fallthrough path
		{"Classic", 4}, // case 1, case 2, case 3; default not counted
		{"Loops", 4},
		{"Guarded", 2},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			assert.Equal(t, tt.want, methodComplexity(t, ws, tt.method), "method %s", tt.method)
		})
	}
}

func TestComplexityCountsTernaryLikeIf(t *testing.T) {
	ws := decisionsFixture(t)

	branch := methodComplexity(t, ws, "Branch")
	ternary := methodComplexity(t, ws, "Ternary")
	assert.Equal(t, branch, ternary, "a conditional expression is a decision point like an if")
}

func TestComplexityZeroWithoutBody(t *testing.T) {
	ws := decisionsFixture(t)

	decide := findOne(t, ws, "Decide", types.KindFilterMethod)
	complexity, err := ws.Complexity(context.Background(), decide)
	require.NoError(t, err)
	assert.Zero(t, complexity)
}
