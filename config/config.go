package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa del scanner.
type Config struct {
	Feeds   FeedsConfig   `yaml:"feeds"`
	Scanner ScannerConfig `yaml:"scanner"`
	Output  OutputConfig  `yaml:"output"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// FeedsConfig indica de dónde se leen los dos feeds.
type FeedsConfig struct {
	A          FeedConfig `yaml:"a"`
	B          FeedConfig `yaml:"b"`
	TimeLayout string     `yaml:"time_layout"` // vacío = auto (unix s/ms, RFC3339)
	Separator  string     `yaml:"separator"`   // un solo carácter; vacío = ","
}

// FeedConfig es la ruta de un feed y el nombre de sus columnas.
// Low/High solo aplican al feed A, Price solo al feed B.
type FeedConfig struct {
	Path    string        `yaml:"path"`
	Columns ColumnsConfig `yaml:"columns"`
}

type ColumnsConfig struct {
	Timestamp string `yaml:"timestamp"`
	Low       string `yaml:"low"`
	High      string `yaml:"high"`
	Price     string `yaml:"price"`
	Volume    string `yaml:"volume"`
}

// ScannerConfig controla el comportamiento del scanner.
type ScannerConfig struct {
	Thresholds              []float64 `yaml:"thresholds"`                // profit fraccional mínimo, un run por valor
	Index                   string    `yaml:"index"`                     // linear | sorted
	ProgressEvery           int       `yaml:"progress_every"`            // filas del feed B entre avisos
	ProgressIntervalSeconds float64   `yaml:"progress_interval_seconds"` // mínimo entre líneas de progreso
}

// OutputConfig controla los resultados.
type OutputConfig struct {
	CSVPath   string `yaml:"csv_path"`  // vacío = sin export
	Precision int32  `yaml:"precision"` // decimales en el CSV
	Table     bool   `yaml:"table"`     // tabla completa en consola
	Top       int    `yaml:"top"`       // filas de la tabla
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Un path vacío usa solo defaults + entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// ProgressInterval devuelve el intervalo de progreso como time.Duration.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Scanner.ProgressIntervalSeconds * float64(time.Second))
}

// Comma devuelve el separador de campos del CSV.
func (c *Config) Comma() rune {
	if c.Feeds.Separator == "" {
		return ','
	}
	if c.Feeds.Separator == `\t` {
		return '\t'
	}
	return []rune(c.Feeds.Separator)[0]
}

// Validate comprueba los valores que no tienen un default razonable.
func (c *Config) Validate() error {
	switch c.Scanner.Index {
	case "linear", "sorted":
	default:
		return fmt.Errorf("scanner.index: unknown value %q (want linear|sorted)", c.Scanner.Index)
	}
	if n := len([]rune(c.Feeds.Separator)); n > 1 && c.Feeds.Separator != `\t` {
		return fmt.Errorf("feeds.separator: want a single character, got %q", c.Feeds.Separator)
	}
	return nil
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("SPATIAL_FEED_A"); v != "" {
		cfg.Feeds.A.Path = v
	}
	if v := os.Getenv("SPATIAL_FEED_B"); v != "" {
		cfg.Feeds.B.Path = v
	}
	if v := os.Getenv("SPATIAL_STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
		cfg.Storage.Enabled = true
	}
	if v := os.Getenv("SPATIAL_THRESHOLDS"); v != "" {
		th, err := ParseThresholds(v)
		if err != nil {
			return fmt.Errorf("SPATIAL_THRESHOLDS: %w", err)
		}
		cfg.Scanner.Thresholds = th
	}
	return nil
}

// ParseThresholds parsea una lista separada por comas ("0,0.001,0.005").
func ParseThresholds(s string) ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("parse threshold %q: %w", part, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no thresholds in %q", s)
	}
	return out, nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if len(cfg.Scanner.Thresholds) == 0 {
		cfg.Scanner.Thresholds = []float64{0}
	}
	if cfg.Scanner.Index == "" {
		cfg.Scanner.Index = "sorted"
	}
	if cfg.Scanner.ProgressEvery <= 0 {
		cfg.Scanner.ProgressEvery = 1000
	}
	if cfg.Scanner.ProgressIntervalSeconds < 0 {
		cfg.Scanner.ProgressIntervalSeconds = 0
	}
	if cfg.Output.Precision <= 0 {
		cfg.Output.Precision = 8
	}
	if cfg.Output.Top <= 0 {
		cfg.Output.Top = 20
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "spatialarb.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
