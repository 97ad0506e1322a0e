package fsops

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"treemk/internal/plan"
	"treemk/internal/safety"
)

// InitPyContent пишется в свежесозданный __init__.py, чтобы файл не был пустым.
const InitPyContent = "# auto-generated __init__\n"

// ApplyArgs — параметры применения плана к файловой системе.
type ApplyArgs struct {
	Plan       plan.Plan
	DestRoot   string
	DryRun     bool
	DirPerm    os.FileMode
	FilePerm   os.FileMode
	ExecGlobs  []string
	DBMode0600 bool
	Logger     *slog.Logger
}

// FileCreationError — не удалось создать файл; содержит путь и исходную причину.
type FileCreationError struct {
	Path string
	Err  error
}

func (e *FileCreationError) Error() string {
	return fmt.Sprintf("failed to create file %s: %v", e.Path, e.Err)
}

func (e *FileCreationError) Unwrap() error { return e.Err }

// Apply создаёт каталоги и файлы согласно плану и возвращает то, что было создано впервые.
// Уже существующие каталоги и файлы не ошибка и в результат не попадают.
// Первая ошибка прерывает работу; созданное до неё остаётся на диске.
func Apply(a ApplyArgs) (plan.Result, error) {
	if a.DirPerm == 0 {
		a.DirPerm = 0o755
	}
	if a.FilePerm == 0 {
		a.FilePerm = 0o644
	}
	if a.Logger == nil {
		a.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ap := &applier{args: a, planned: map[string]bool{}}

	// Стек имён: индекс — глубина.
	var stack []string

	for _, n := range a.Plan.Nodes {
		// Поднимаемся при необходимости. Прыжок глубже чем на уровень не ошибка:
		// стек просто растёт.
		if len(stack) > n.Depth {
			stack = stack[:n.Depth]
		}
		stack = append(stack, n.Name)

		target, err := safety.SafeJoin(a.DestRoot, stack...)
		if err != nil {
			return ap.res, err
		}

		if n.Dir {
			if err := ap.ensureDir(target); err != nil {
				return ap.res, err
			}
			continue
		}
		if err := ap.ensureFile(target); err != nil {
			return ap.res, err
		}
	}

	return ap.res, nil
}

type applier struct {
	args ApplyArgs
	res  plan.Result
	// planned — пути, «созданные» в dry-run: true — каталог, false — файл.
	planned map[string]bool
}

// stat учитывает пути, запланированные в dry-run.
func (ap *applier) stat(path string) (exists, isDir bool, err error) {
	if dir, ok := ap.planned[path]; ok {
		return true, dir, nil
	}
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return true, info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, false, nil
	default:
		return false, false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// ensureDir создаёт каталог со всей недостающей цепочкой предков.
// Каждый впервые созданный уровень попадает в результат, от внешнего к внутреннему.
func (ap *applier) ensureDir(path string) error {
	var missing []string
	for p := path; ; {
		exists, isDir, err := ap.stat(p)
		if err != nil {
			return err
		}
		if exists {
			if !isDir {
				return fmt.Errorf("conflict: %s exists and is not a directory", p)
			}
			break
		}
		missing = append(missing, p)
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}

	if len(missing) == 0 {
		ap.args.Logger.Debug("dir exists", "path", path)
		return nil
	}

	if !ap.args.DryRun {
		if err := os.MkdirAll(path, ap.args.DirPerm); err != nil {
			return fmt.Errorf("mkdir %s: %w", path, err)
		}
	}
	for i := len(missing) - 1; i >= 0; i-- {
		p := missing[i]
		if ap.args.DryRun {
			ap.planned[p] = true
		} else if err := os.Chmod(p, ap.args.DirPerm); err != nil {
			return fmt.Errorf("chmod %s: %w", p, err)
		}
		ap.res.Dirs = append(ap.res.Dirs, p)
		ap.args.Logger.Debug("dir created", "path", p, "dry_run", ap.args.DryRun)
	}
	return nil
}

// ensureFile готовит родительский каталог и создаёт пустой файл, если его ещё нет.
// Любой путь, который уже существует (файл или каталог), пропускается без ошибки.
func (ap *applier) ensureFile(path string) error {
	if err := ap.ensureDir(filepath.Dir(path)); err != nil {
		return &FileCreationError{Path: path, Err: err}
	}

	exists, isDir, err := ap.stat(path)
	if err != nil {
		return &FileCreationError{Path: path, Err: err}
	}
	if exists {
		ap.args.Logger.Debug("file exists", "path", path, "is_dir", isDir)
		return nil
	}

	if ap.args.DryRun {
		ap.planned[path] = false
		ap.res.Files = append(ap.res.Files, path)
		ap.args.Logger.Debug("file created", "path", path, "dry_run", true)
		return nil
	}

	mode := ap.chooseFileMode(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode)
	if errors.Is(err, fs.ErrExist) {
		// Кто-то успел создать файл между stat и open — считаем существующим.
		return nil
	}
	if err != nil {
		return &FileCreationError{Path: path, Err: err}
	}
	if filepath.Base(path) == "__init__.py" {
		if _, err := f.WriteString(InitPyContent); err != nil {
			_ = f.Close()
			return &FileCreationError{Path: path, Err: err}
		}
	}
	if err := f.Close(); err != nil {
		return &FileCreationError{Path: path, Err: err}
	}
	if err := os.Chmod(path, mode); err != nil {
		return &FileCreationError{Path: path, Err: err}
	}

	ap.res.Files = append(ap.res.Files, path)
	ap.args.Logger.Debug("file created", "path", path, "mode", mode.String())
	return nil
}

// chooseFileMode: *.db/*.sqlite получают 0600 (если включено), файлы по ExecGlobs — 0755.
func (ap *applier) chooseFileMode(path string) os.FileMode {
	rel := path
	if r, err := filepath.Rel(ap.args.DestRoot, path); err == nil {
		rel = r
	}
	relSl := filepath.ToSlash(rel)

	if ap.args.DBMode0600 {
		lower := strings.ToLower(relSl)
		for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
			if strings.HasSuffix(lower, ext) {
				return 0o600
			}
		}
	}

	for _, pat := range ap.args.ExecGlobs {
		if ok, _ := filepath.Match(filepath.ToSlash(pat), relSl); ok {
			return 0o755
		}
	}
	return ap.args.FilePerm
}
