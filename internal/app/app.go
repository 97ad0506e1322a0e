package app

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"treemk/internal/fsops"
	"treemk/internal/parser"
	"treemk/internal/plan"
)

// Options — все настройки запуска утилиты.
type Options struct {
	InPath      string
	OutDir      string
	DryRun      bool
	Verbose     bool
	Quiet       bool
	JSON        bool
	SkipSummary bool
	LogLevel    string
	LogFormat   string
	DirPerm     os.FileMode
	FilePerm    os.FileMode
	ExecGlobs   []string
	DBMode0600  bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Report — машиночитаемый итог запуска (--json).
type Report struct {
	Base   string   `json:"base"`
	DryRun bool     `json:"dry_run"`
	Dirs   []string `json:"dirs"`
	Files  []string `json:"files"`
	Error  string   `json:"error,omitempty"`
}

// Build разбирает structureText и создаёт описанное дерево внутри basePath.
// Пустая структура отклоняется до любого обращения к диску.
func Build(basePath, structureText string, o Options) (plan.Result, error) {
	return build(strings.NewReader(structureText), basePath, o, o.logger())
}

// Inspect только разбирает вход и возвращает план.
func Inspect(o Options) (plan.Plan, error) {
	r, closeFn, err := o.openInput()
	if err != nil {
		return plan.Plan{}, err
	}
	defer closeFn()
	p, err := parser.Parse(r, parser.Options{SkipSummary: o.SkipSummary})
	if err != nil {
		return plan.Plan{}, fmt.Errorf("ошибка парсинга структуры: %w", err)
	}
	return p, nil
}

// Run — главная функция приложения: читает вход, строит дерево, печатает отчёт.
// Даже при ошибке печатается то, что успело создаться.
func Run(o Options) error {
	logger := o.logger().With("run_id", uuid.NewString())

	r, closeFn, err := o.openInput()
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Debug("building structure", "in", o.InPath, "out", o.OutDir, "dry_run", o.DryRun)
	res, buildErr := build(r, o.OutDir, o, logger)
	if buildErr != nil {
		logger.Error("build aborted", "error", buildErr,
			"dirs", len(res.Dirs), "files", len(res.Files))
	} else {
		logger.Info("build finished", "dirs", len(res.Dirs), "files", len(res.Files))
	}

	if err := o.printReport(res, buildErr); err != nil {
		return err
	}
	return buildErr
}

func build(r io.Reader, base string, o Options, logger *slog.Logger) (plan.Result, error) {
	p, err := parser.Parse(r, parser.Options{SkipSummary: o.SkipSummary})
	if err != nil {
		return plan.Result{}, fmt.Errorf("ошибка парсинга структуры: %w", err)
	}
	logger.Debug("structure parsed", "nodes", len(p.Nodes), "indent_unit", p.IndentUnit)

	return fsops.Apply(fsops.ApplyArgs{
		Plan:       p,
		DestRoot:   base,
		DryRun:     o.DryRun,
		DirPerm:    o.DirPerm,
		FilePerm:   o.FilePerm,
		ExecGlobs:  o.ExecGlobs,
		DBMode0600: o.DBMode0600,
		Logger:     logger,
	})
}

// openInput открывает источник: файл или stdin ("-").
func (o Options) openInput() (io.Reader, func(), error) {
	if o.InPath == "-" {
		if o.Stdin == nil {
			return os.Stdin, func() {}, nil
		}
		return o.Stdin, func() {}, nil
	}
	f, err := os.Open(o.InPath)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось открыть входной файл %q: %w", o.InPath, err)
	}
	return f, func() { _ = f.Close() }, nil
}

func (o Options) logger() *slog.Logger {
	level := o.LogLevel
	switch {
	case o.Verbose:
		level = "debug"
	case o.Quiet:
		level = "error"
	}
	return newLogger(level, o.LogFormat, o.stderr())
}

func (o Options) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

func (o Options) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

func (o Options) printReport(res plan.Result, buildErr error) error {
	w := o.stdout()

	if o.JSON {
		rep := Report{Base: o.OutDir, DryRun: o.DryRun, Dirs: res.Dirs, Files: res.Files}
		if rep.Dirs == nil {
			rep.Dirs = []string{}
		}
		if rep.Files == nil {
			rep.Files = []string{}
		}
		if buildErr != nil {
			rep.Error = buildErr.Error()
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	if o.Quiet {
		return nil
	}
	if buildErr == nil {
		prefix := "Готово"
		if o.DryRun {
			prefix = "Dry-run"
		}
		fmt.Fprintf(w, "%s: каталогов создано: %d, файлов создано: %d\n", prefix, len(res.Dirs), len(res.Files))
	}
	fmt.Fprintln(w, "=== Каталоги созданы ===")
	for _, d := range res.Dirs {
		fmt.Fprintln(w, d)
	}
	fmt.Fprintln(w, "\n=== Файлы созданы ===")
	for _, f := range res.Files {
		fmt.Fprintln(w, f)
	}
	return nil
}
