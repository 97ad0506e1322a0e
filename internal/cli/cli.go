package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"treemk/internal/app"
	"treemk/internal/config"
)

// ExitError — ошибка с кодом выхода процесса.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// IO — потоки, в которые пишет и из которых читает команда.
type IO struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Execute разбирает args и запускает нужную подкоманду.
// Ошибки использования дают код 2, ошибки выполнения — код 1.
func Execute(args []string, streams IO, version string) error {
	root := NewRootCommand(streams, version)
	if args == nil {
		// иначе cobra возьмёт os.Args
		args = []string{}
	}
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return &ExitError{Code: 1, Message: "ошибка: " + err.Error()}
	}
	return nil
}

// NewRootCommand собирает дерево команд treemk.
func NewRootCommand(streams IO, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "treemk",
		Short: "создаёт каталоги и файлы по ASCII-дереву",
		Long: `treemk читает дерево в формате tree (├──/└──, |--/` + "`--" + `, или просто отступы)
и создаёт описанные каталоги и пустые файлы.

Каталог — строка, оканчивающаяся на "/". Всё после "#" — комментарий.
Ширина отступа определяется автоматически (НОД всех отступов, минимум 2, иначе 4).`,
		// Без Args cobra сама проверяет подкоманды и отдаёт безымянную ошибку;
		// свой валидатор даёт код 2 для неизвестной команды.
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError("неизвестная команда %q для %q", args[0], cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: 2, Message: err.Error()}
	})

	root.AddCommand(
		newGenerateCommand(streams),
		newParseCommand(streams),
		newVersionCommand(streams, version),
	)
	return root
}

type generateFlags struct {
	in          string
	out         string
	configPath  string
	dry         bool
	verbose     bool
	quiet       bool
	jsonOutput  bool
	skipSummary bool
	db0600      bool
	dperm       string
	fperm       string
	execGlob    string
	logLevel    string
	logFormat   string
}

func newGenerateCommand(streams IO) *cobra.Command {
	f := &generateFlags{}
	cmd := &cobra.Command{
		Use:   "generate [BASE]",
		Short: "создать структуру внутри каталога BASE",
		Example: `  treemk generate -i struct.txt ./dst
  cat struct.txt | treemk generate -i - -o ./dst -v
  treemk generate -i struct.txt --dry --json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return usageError("ожидается не больше одного позиционного аргумента, получено: %s", strings.Join(args, " "))
			}
			if len(args) == 1 && cmd.Flags().Changed("out") {
				return usageError("базовый каталог указан дважды: %q и %q", f.out, args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				f.out = args[0]
			}
			if f.verbose && f.quiet {
				return usageError("-v и -q несовместимы")
			}
			opts, err := f.options(cmd, streams)
			if err != nil {
				return err
			}
			return app.Run(opts)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.in, "in", "i", "struct", "путь к файлу со структурой ('-' для stdin)")
	fl.StringVarP(&f.out, "out", "o", ".", "базовый каталог, внутри которого создаётся дерево")
	fl.StringVar(&f.configPath, "config", "", "YAML-конфиг (по умолчанию "+config.DefaultFile+", если есть)")
	fl.BoolVar(&f.dry, "dry", false, "dry-run: только показать, что будет создано")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "подробный вывод")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "тихий режим")
	fl.BoolVar(&f.jsonOutput, "json", false, "отчёт в JSON")
	fl.BoolVar(&f.skipSummary, "skip-summary", false, "игнорировать итоговую строку tree (\"N directories, M files\")")
	fl.BoolVar(&f.db0600, "db-0600", false, "ставить 0600 на *.db/*.sqlite/*.sqlite3")
	fl.StringVar(&f.dperm, "dperm", "", "права для каталогов (восьмерично, например 0755)")
	fl.StringVar(&f.fperm, "fperm", "", "права для файлов (восьмерично, например 0644)")
	fl.StringVar(&f.execGlob, "exec-glob", "", "glob-шаблоны исполняемых файлов через запятую (\"*.sh,bin/*\")")
	fl.StringVar(&f.logLevel, "log-level", "", "уровень логов: debug, info, warn, error")
	fl.StringVar(&f.logFormat, "log-format", "", "формат логов: text или json")
	return cmd
}

// options сводит конфиг и флаги; явно заданный флаг важнее конфига.
func (f *generateFlags) options(cmd *cobra.Command, streams IO) (app.Options, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return app.Options{}, err
	}

	changed := cmd.Flags().Changed
	if changed("dperm") {
		cfg.DirPerm = f.dperm
	}
	if changed("fperm") {
		cfg.FilePerm = f.fperm
	}
	if changed("exec-glob") {
		cfg.ExecGlobs = config.SplitGlobs(f.execGlob)
	}
	if changed("db-0600") {
		cfg.DBMode0600 = f.db0600
	}
	if changed("skip-summary") {
		cfg.SkipSummary = f.skipSummary
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("log-format") {
		cfg.LogFormat = f.logFormat
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return app.Options{}, usageError("неверный log-level %q: ожидается debug, info, warn или error", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return app.Options{}, usageError("неверный log-format %q: ожидается text или json", cfg.LogFormat)
	}

	dperm, err := config.ParsePerm(cfg.DirPerm, 0o755)
	if err != nil {
		return app.Options{}, usageError("неверные права -dperm: %v", err)
	}
	fperm, err := config.ParsePerm(cfg.FilePerm, 0o644)
	if err != nil {
		return app.Options{}, usageError("неверные права -fperm: %v", err)
	}

	return app.Options{
		InPath:      f.in,
		OutDir:      f.out,
		DryRun:      f.dry,
		Verbose:     f.verbose,
		Quiet:       f.quiet,
		JSON:        f.jsonOutput,
		SkipSummary: cfg.SkipSummary,
		LogLevel:    cfg.LogLevel,
		LogFormat:   cfg.LogFormat,
		DirPerm:     dperm,
		FilePerm:    fperm,
		ExecGlobs:   cfg.ExecGlobs,
		DBMode0600:  cfg.DBMode0600,
		Stdin:       streams.In,
		Stdout:      streams.Out,
		Stderr:      streams.Err,
	}, nil
}

func newParseCommand(streams IO) *cobra.Command {
	var (
		in          string
		skipSummary bool
		jsonOutput  bool
	)
	cmd := &cobra.Command{
		Use:   "parse",
		Short: "показать, как разобрано дерево (глубина, тип, имя), ничего не создавая",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Inspect(app.Options{InPath: in, SkipSummary: skipSummary, Stdin: streams.In})
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(streams.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}

			fmt.Fprintf(streams.Out, "indent unit: %d\n", p.IndentUnit)
			tw := tabwriter.NewWriter(streams.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DEPTH\tKIND\tNAME")
			for _, n := range p.Nodes {
				kind := "file"
				if n.Dir {
					kind = "dir"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s%s\n", n.Depth, kind, strings.Repeat("  ", n.Depth), n.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "путь к файлу со структурой ('-' для stdin)")
	cmd.Flags().BoolVar(&skipSummary, "skip-summary", false, "игнорировать итоговую строку tree")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "вывод в JSON")
	return cmd
}

func newVersionCommand(streams IO, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "показать версию",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(streams.Out, version)
		},
	}
}
