package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"treemk/internal/plan"
)

// ErrEmptyStructure — во входе не нашлось ни одной строки структуры.
var ErrEmptyStructure = errors.New("no valid structure lines found")

// DefaultIndentUnit используется, когда единицу отступа вывести нельзя.
const DefaultIndentUnit = 4

// Options — необязательные настройки разбора.
type Options struct {
	// SkipSummary отбрасывает итоговую строку tree вида "3 directories, 5 files".
	SkipSummary bool
}

// Parse читает tree-подобный текст и возвращает план.
// Поддерживает псевдографику (├──/└──) и ASCII (|--/`--/+--), отступы любой ширины.
// Глубина считается как длина префикса, делённая на НОД всех ненулевых префиксов.
func Parse(r io.Reader, opts Options) (plan.Plan, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024), 1024*1024)

	var nodes []plan.Node
	var prefixLens []int

	for sc.Scan() {
		raw := strings.TrimRightFunc(sc.Text(), unicode.IsSpace)
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if opts.SkipSummary && isTreeSummary(line) {
			continue
		}

		n, ok := parseLine(raw)
		if !ok {
			continue
		}
		nodes = append(nodes, n)
		if n.PrefixLen > 0 {
			prefixLens = append(prefixLens, n.PrefixLen)
		}
	}
	if err := sc.Err(); err != nil {
		return plan.Plan{}, fmt.Errorf("чтение структуры: %w", err)
	}
	if len(nodes) == 0 {
		return plan.Plan{}, ErrEmptyStructure
	}

	unit := indentUnit(prefixLens)
	for i := range nodes {
		if unit > 0 {
			nodes[i].Depth = nodes[i].PrefixLen / unit
		}
	}

	return plan.Plan{Nodes: nodes, IndentUnit: unit}, nil
}

// ParseString — Parse для строки с настройками по умолчанию.
func ParseString(text string) (plan.Plan, error) {
	return Parse(strings.NewReader(text), Options{})
}

// parseLine разбирает одну непустую строку. ok=false — строка не даёт узла
// (например, чистый комментарий или одна псевдографика).
func parseLine(raw string) (plan.Node, bool) {
	runes := []rune(raw)
	prefixLen := 0
	for prefixLen < len(runes) && isPrefixRune(runes[prefixLen]) {
		prefixLen++
	}

	name := strings.TrimSpace(string(runes[prefixLen:]))
	// Второй проход: в строке могут смешиваться ├── и ASCII-ветки |-- / `-- / +--.
	name = stripConnectors(name)

	if i := strings.IndexByte(name, '#'); i >= 0 {
		name = strings.TrimSpace(name[:i])
	}
	if name == "" {
		return plan.Node{}, false
	}

	dir := strings.HasSuffix(strings.TrimSpace(raw), "/") || strings.HasSuffix(name, "/")

	// Ведущий слэш убираем, чтобы путь был относительным к базе;
	// хвостовой уже учтён в dir.
	name = strings.TrimRight(strings.TrimPrefix(name, "/"), "/")
	if name == "" {
		return plan.Node{}, false
	}

	return plan.Node{
		Raw:       raw,
		PrefixLen: prefixLen,
		Name:      name,
		Dir:       dir,
	}, true
}

// indentUnit — НОД ненулевых длин префиксов; меньше 2 — берём DefaultIndentUnit.
func indentUnit(prefixLens []int) int {
	g := 0
	for _, n := range prefixLens {
		g = gcd(g, n)
	}
	if g < 2 {
		return DefaultIndentUnit
	}
	return g
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// isPrefixRune — символы отступа: пробел, таб и линии псевдографики.
func isPrefixRune(r rune) bool {
	switch r {
	case ' ', '\t', '│', '├', '└', '┬', '┴', '┤', '┐', '┌', '┘', '┼', '─':
		return true
	}
	return false
}

// stripConnectors срезает ведущие ветки. '+' считается веткой только в "+-",
// иначе пострадали бы имена вроде "+page.svelte".
func stripConnectors(s string) string {
	for {
		s = strings.TrimLeftFunc(s, isConnectorRune)
		if !strings.HasPrefix(s, "+-") {
			return s
		}
		s = s[1:]
	}
}

// isConnectorRune — то, что может остаться перед именем после префикса.
func isConnectorRune(r rune) bool {
	if unicode.IsSpace(r) {
		return true
	}
	switch r {
	case '-', '─', '│', '├', '└', '┐', '┌', '┘', '┼', '|', '`':
		return true
	}
	return false
}

var summaryRe = regexp.MustCompile(`^\d+ director(y|ies)(, \d+ files?)?$`)

// isTreeSummary узнаёт итоговую строку, которую печатает tree.
func isTreeSummary(line string) bool {
	return summaryRe.MatchString(strings.ToLower(line))
}
