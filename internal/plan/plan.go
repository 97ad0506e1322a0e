package plan

// Node — одна запись дерева: файл или каталог с вычисленной глубиной.
type Node struct {
	Raw       string `json:"raw"`        // исходная строка без хвостовых пробелов (для диагностики)
	PrefixLen int    `json:"prefix_len"` // длина префикса из отступов и псевдографики, в символах
	Name      string `json:"name"`       // очищенное имя, никогда не пустое
	Dir       bool   `json:"dir"`        // это каталог?
	Depth     int    `json:"depth"`      // глубина (0 — непосредственно в базовом каталоге)
}

// Plan — узлы в порядке строк входа и найденная единица отступа.
type Plan struct {
	Nodes      []Node `json:"nodes"`
	IndentUnit int    `json:"indent_unit"`
}

// Result — что реально было создано, в порядке создания.
type Result struct {
	Dirs  []string `json:"dirs"`
	Files []string `json:"files"`
}
