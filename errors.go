package fieldbind

import (
	"errors"
	"fmt"
)

// ErrRenderUnsupported возвращается Render для шаблонов, которые рендерит внешний конвейер.
var ErrRenderUnsupported = errors.New("рендер для этого вида шаблона не поддерживается")

// StructureError сообщает, что табличный источник не соответствует контракту
// (нет строк, нет колонок key/value, некорректный ключ).
type StructureError struct {
	Source string // имя файла или "<reader>"
	Row    int    // 1-based номер строки таблицы, 0 для таблицы целиком
	Reason string
}

func (e *StructureError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: строка %d: %s", e.Source, e.Row, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Reason)
}

// ExtractionError сообщает, что узел синтаксического дерева не удалось классифицировать.
type ExtractionError struct {
	Kind   string
	Detail string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("извлечение полей: узел %s: %s", e.Kind, e.Detail)
}
