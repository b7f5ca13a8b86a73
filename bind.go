package fieldbind

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// loadWithConfig загружает шаблон и ставит ему словарь из конфига.
func loadWithConfig(templatePath string, cfg Config) (*Template, error) {
	log.Printf("🔄 Загрузка шаблона: %s", templatePath)
	tmpl, err := LoadTemplate(templatePath)
	if err != nil {
		log.Printf("❌ Ошибка загрузки шаблона: %v", err)
		return nil, err
	}
	tmpl.Dialect = cfg.Dialect(tmpl.Kind)
	log.Printf("✅ Шаблон загружен (%s)", tmpl.Kind)
	return tmpl, nil
}

func bind(tmpl *Template, dataPath string, cfg Config) (map[string]any, error) {
	fields, err := tmpl.Fields()
	if err != nil {
		log.Printf("❌ Ошибка извлечения полей: %v", err)
		return nil, err
	}
	log.Printf("📝 Полей в шаблоне: %d", len(fields))

	log.Printf("🔄 Чтение таблицы данных: %s", dataPath)
	rows, err := ReadRowsFile(dataPath, cfg.rowOptions())
	if err != nil {
		log.Printf("❌ Ошибка чтения таблицы: %v", err)
		return nil, err
	}
	log.Printf("📊 Строк данных: %d", len(rows))

	asm := NewAssembler(AssembleOptions{
		Coercion: cfg.Coercion,
		MaxIndex: cfg.MaxIndex,
		OnSkip: func(path string) {
			log.Printf("⚠️ %s: индекс больше %d, путь пропущен", path, cfg.MaxIndex)
		},
		OnConvert: func(c Conversion) {
			if len(c.Dropped) > 0 {
				log.Printf("⚠️ %s: %s → %s, отброшены ключи %v", c.Path, c.From, c.To, c.Dropped)
				return
			}
			log.Printf("⚠️ %s: %s → %s", c.Path, c.From, c.To)
		},
	})
	return asm.Assemble(rows, fields), nil
}

// BindFiles собирает дерево данных под шаблон: поля шаблона + таблица key/value.
func BindFiles(templatePath, dataPath string, cfg Config) (map[string]any, error) {
	startTime := time.Now()
	tmpl, err := loadWithConfig(templatePath, cfg)
	if err != nil {
		return nil, err
	}
	tree, err := bind(tmpl, dataPath, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Данные собраны за %v", time.Since(startTime))
	return tree, nil
}

// RenderFiles собирает данные и рендерит текстовый шаблон в destPath.
func RenderFiles(templatePath, dataPath, destPath string, cfg Config) error {
	log.Printf("📊 Начинаем рендер...")
	log.Printf("📁 Шаблон: %s", templatePath)
	log.Printf("📄 Выходной файл: %s", destPath)
	startTime := time.Now()

	tmpl, err := loadWithConfig(templatePath, cfg)
	if err != nil {
		return err
	}
	tree, err := bind(tmpl, dataPath, cfg)
	if err != nil {
		return err
	}

	log.Printf("💾 Сохранение файла...")
	out, err := os.Create(destPath)
	if err != nil {
		log.Printf("❌ Ошибка создания файла: %v", err)
		return err
	}
	if err := tmpl.Render(out, tree); err != nil {
		out.Close()
		log.Printf("❌ Ошибка рендеринга: %v", err)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	log.Printf("✅ Рендер завершён за %v", time.Since(startTime))
	log.Printf("📄 Результат сохранен в: %s", destPath)
	return nil
}

// WriteBlankFile пишет пустую таблицу полей шаблона: в .xlsx книгу, иначе CSV.
func WriteBlankFile(templatePath, destPath string, cfg Config) error {
	tmpl, err := loadWithConfig(templatePath, cfg)
	if err != nil {
		return err
	}
	fields, err := tmpl.Fields()
	if err != nil {
		log.Printf("❌ Ошибка извлечения полей: %v", err)
		return err
	}
	log.Printf("📝 Полей в шаблоне: %d", len(fields))

	if strings.EqualFold(filepath.Ext(destPath), ".xlsx") {
		err = WriteBlankWorkbook(destPath, fields)
	} else {
		err = writeBlankCSV(destPath, fields)
	}
	if err != nil {
		log.Printf("❌ Ошибка записи таблицы: %v", err)
		return err
	}
	log.Printf("📄 Пустая таблица сохранена в: %s", destPath)
	return nil
}

func writeBlankCSV(path string, fields []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteBlankTable(f, fields); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
