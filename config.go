package fieldbind

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config хранит настройки конвейеров и CLI. Нулевые поля заменяются значениями по умолчанию.
type Config struct {
	// Dialects переопределяют словари по виду шаблона; незаданные виды берут DefaultDialect.
	Dialects map[Kind]Dialect `yaml:"dialects"`
	Coercion Coercion         `yaml:"coercion"`
	MaxIndex int              `yaml:"max_index"`
}

func DefaultConfig() Config {
	return Config{
		Dialects: map[Kind]Dialect{
			KindHandlebars: DefaultDialect(KindHandlebars),
			KindGoTemplate: DefaultDialect(KindGoTemplate),
			KindWorkbook:   DefaultDialect(KindWorkbook),
		},
		Coercion: DefaultCoercion(),
		MaxIndex: DefaultMaxIndex,
	}
}

// LoadConfig читает YAML поверх значений по умолчанию.
// Заданный в файле словарь заменяет словарь своего вида целиком.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	// coercion декодируется поверх умолчаний: незаданные в файле поля сохраняются
	file := Config{Coercion: DefaultCoercion()}
	if err := yaml.Unmarshal(b, &file); err != nil {
		return cfg, fmt.Errorf("конфиг %s: %w", path, err)
	}
	for k, d := range file.Dialects {
		switch k {
		case KindHandlebars, KindGoTemplate, KindWorkbook:
		default:
			return cfg, fmt.Errorf("конфиг %s: неизвестный вид шаблона %q", path, k)
		}
		cfg.Dialects[k] = d
	}
	cfg.Coercion = file.Coercion
	if file.MaxIndex > 0 {
		cfg.MaxIndex = file.MaxIndex
	}
	return cfg, nil
}

// Dialect возвращает словарь для вида шаблона.
func (c Config) Dialect(kind Kind) Dialect {
	if d, ok := c.Dialects[kind]; ok {
		return d
	}
	return DefaultDialect(kind)
}

func (c Config) rowOptions() RowOptions {
	return RowOptions{MaxIndex: c.MaxIndex}
}
