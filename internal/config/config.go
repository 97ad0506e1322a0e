// Package config собирает настройки treemk из YAML-файла, .env и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultFile ищется в текущем каталоге, если путь к конфигу не задан явно.
const DefaultFile = ".treemk.yaml"

// EnvPrefix — префикс переменных окружения.
const EnvPrefix = "TREEMK_"

// Config — настройки, общие для всех запусков. Флаги командной строки применяются поверх.
type Config struct {
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"`
	DirPerm     string   `yaml:"dir_perm"`
	FilePerm    string   `yaml:"file_perm"`
	ExecGlobs   []string `yaml:"exec_globs"`
	DBMode0600  bool     `yaml:"db_0600"`
	SkipSummary bool     `yaml:"skip_summary"`
}

// Default — значения по умолчанию.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		DirPerm:   "0755",
		FilePerm:  "0644",
	}
}

// Load: значения по умолчанию, затем YAML, затем .env и TREEMK_*.
// Пустой path — пробуем DefaultFile, его отсутствие не ошибка.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("разбор %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// нет файла — ок
	default:
		return Config{}, fmt.Errorf("чтение конфига: %w", err)
	}

	// .env не обязателен; уже выставленные переменные он не перетирает.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("загрузка .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("DIR_PERM", &c.DirPerm)
	str("FILE_PERM", &c.FilePerm)
	if v, ok := lookup(EnvPrefix + "EXEC_GLOBS"); ok {
		c.ExecGlobs = SplitGlobs(v)
	}
	if err := boolean("DB_0600", &c.DBMode0600); err != nil {
		return err
	}
	return boolean("SKIP_SUMMARY", &c.SkipSummary)
}

// ParsePerm разбирает права в восьмеричном виде: 0755, 755 и 0o755.
// Нулевые права и другие основания (0x, 0b) — ошибка.
func ParsePerm(s string, def os.FileMode) (os.FileMode, error) {
	ss := strings.TrimSpace(s)
	if ss == "" {
		return def, nil
	}
	digits := strings.TrimPrefix(strings.TrimPrefix(ss, "0o"), "0O")
	u, err := strconv.ParseUint(digits, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("права %q: ожидается восьмеричное число: %w", s, err)
	}
	if u == 0 {
		return 0, fmt.Errorf("права %q: нулевые права запрещены", s)
	}
	if u > 0o7777 {
		return 0, fmt.Errorf("права вне диапазона: %s", s)
	}
	return os.FileMode(u), nil
}

// SplitGlobs режет список шаблонов через запятую, выбрасывая пустые.
func SplitGlobs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
