package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type nodeView struct {
	Name  string
	Dir   bool
	Depth int
}

func view(t *testing.T, text string) ([]nodeView, int) {
	t.Helper()
	p, err := ParseString(text)
	require.NoError(t, err)
	out := make([]nodeView, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		out = append(out, nodeView{Name: n.Name, Dir: n.Dir, Depth: n.Depth})
	}
	return out, p.IndentUnit
}

func TestParse_IndentedProject(t *testing.T) {
	t.Parallel()

	text := "project/\n  src/\n    main.py\n  README.md\n"

	got, unit := view(t, text)

	require.Equal(t, 2, unit)
	want := []nodeView{
		{Name: "project", Dir: true, Depth: 0},
		{Name: "src", Dir: true, Depth: 1},
		{Name: "main.py", Depth: 2},
		{Name: "README.md", Depth: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_BoxDrawingTree(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"app/",
		"├── cmd/",
		"│   └── main.go",
		"├── internal/",
		"│   ├── a.go   # comment",
		"│   └── b.go",
		"└── go.mod",
	}, "\n")

	got, unit := view(t, text)

	// Префиксы "├── " = 4, "│   └── " = 8.
	require.Equal(t, 4, unit)
	want := []nodeView{
		{Name: "app", Dir: true, Depth: 0},
		{Name: "cmd", Dir: true, Depth: 1},
		{Name: "main.go", Depth: 2},
		{Name: "internal", Dir: true, Depth: 1},
		{Name: "a.go", Depth: 2},
		{Name: "b.go", Depth: 2},
		{Name: "go.mod", Depth: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ASCIIFallbackConnectors(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"root/",
		"|-- lib/",
		"|   `-- util.go",
		"+-- +page.svelte",
	}, "\n")

	got, _ := view(t, text)

	require.Len(t, got, 4)
	require.Equal(t, "lib", got[1].Name)
	require.True(t, got[1].Dir)
	require.Equal(t, "util.go", got[2].Name)
	require.Equal(t, "+page.svelte", got[3].Name)
	require.Equal(t, 0, got[1].Depth, "'|' is not part of the indentation alphabet")
}

func TestParse_FallbackIndentUnit(t *testing.T) {
	t.Parallel()

	// Префиксы {1, 1, 1}: НОД = 1 < 2, единица отступа падает на 4.
	got, unit := view(t, " a\n b\n c\n")

	require.Equal(t, DefaultIndentUnit, unit)
	for _, n := range got {
		require.Equal(t, 0, n.Depth, "node %q", n.Name)
	}
}

func TestParse_NoIndentationUsesDefaultUnit(t *testing.T) {
	t.Parallel()

	got, unit := view(t, "src/\nmain.py\n")

	require.Equal(t, DefaultIndentUnit, unit)
	require.Equal(t, []nodeView{
		{Name: "src", Dir: true, Depth: 0},
		{Name: "main.py", Depth: 0},
	}, got)
}

func TestParse_GCDOfMixedWidths(t *testing.T) {
	t.Parallel()

	// 3 и 6 пробелов — единица 3.
	got, unit := view(t, "a/\n   b/\n      c.txt\n   d.txt\n")

	require.Equal(t, 3, unit)
	require.Equal(t, []int{0, 1, 2, 1}, depths(got))
}

func TestParse_LeadingSlashAndComments(t *testing.T) {
	t.Parallel()

	p, err := ParseString("/etc/   # system\n# only a comment\n  /conf.yaml # trailing\n  ├── # nothing here\n")
	require.NoError(t, err)

	require.Len(t, p.Nodes, 2)
	require.Equal(t, "etc", p.Nodes[0].Name)
	require.True(t, p.Nodes[0].Dir)
	require.Equal(t, "conf.yaml", p.Nodes[1].Name)
	require.False(t, p.Nodes[1].Dir)
	require.Equal(t, "  /conf.yaml # trailing", p.Nodes[1].Raw)
	require.Equal(t, 2, p.Nodes[1].PrefixLen)
}

func TestParse_DirectoryMarkerOnRawLine(t *testing.T) {
	t.Parallel()

	// Слэш в конце сырой строки после комментария тоже делает узел каталогом.
	p, err := ParseString("docs # see wiki/\n")
	require.NoError(t, err)

	require.Len(t, p.Nodes, 1)
	require.Equal(t, "docs", p.Nodes[0].Name)
	require.True(t, p.Nodes[0].Dir)
}

func TestParse_PrefixCountsRunesNotBytes(t *testing.T) {
	t.Parallel()

	p, err := ParseString("a/\n│   b\n")
	require.NoError(t, err)

	require.Equal(t, 4, p.Nodes[1].PrefixLen)
	require.Equal(t, 1, p.Nodes[1].Depth)
}

func TestParse_LoneSlashDoesNotTakeAStackSlot(t *testing.T) {
	t.Parallel()

	// Строка "/" отбрасывается целиком: "a.txt" остаётся внутри "x".
	got, unit := view(t, "x/\n/\n  a.txt\n")

	require.Equal(t, 2, unit)
	require.Equal(t, []nodeView{
		{Name: "x", Dir: true, Depth: 0},
		{Name: "a.txt", Depth: 1},
	}, got)
}

func TestParse_EmptyStructure(t *testing.T) {
	t.Parallel()

	for name, text := range map[string]string{
		"empty":         "",
		"blank":         "   \n\t\n",
		"comments only": "# one\n   # two\n",
		"connectors":    "├──\n│\n└── #x\n",
		"lone slash":    "/\n",
	} {
		text := text
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseString(text)
			require.ErrorIs(t, err, ErrEmptyStructure)
			require.EqualError(t, err, "no valid structure lines found")
		})
	}
}

func TestParse_SkipSummary(t *testing.T) {
	t.Parallel()

	text := "proj/\n└── main.go\n\n1 directory, 1 file\n"

	withSummary, err := Parse(strings.NewReader(text), Options{})
	require.NoError(t, err)
	require.Len(t, withSummary.Nodes, 3)

	skipped, err := Parse(strings.NewReader(text), Options{SkipSummary: true})
	require.NoError(t, err)
	require.Len(t, skipped.Nodes, 2)
}

func TestIsTreeSummary(t *testing.T) {
	t.Parallel()

	require.True(t, isTreeSummary("3 directories, 12 files"))
	require.True(t, isTreeSummary("1 directory, 1 file"))
	require.True(t, isTreeSummary("0 directories"))
	require.False(t, isTreeSummary("directory_files.go"))
	require.False(t, isTreeSummary("files/"))
}

func depths(nodes []nodeView) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Depth
	}
	return out
}
