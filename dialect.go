package fieldbind

// Kind задаёт вид (синтаксис) шаблона.
type Kind string

const (
	KindHandlebars Kind = "handlebars"
	KindGoTemplate Kind = "gotemplate"
	KindWorkbook   Kind = "workbook"
)

// Dialect описывает словарь управляющих слов синтаксиса. Передаётся в Extractor явно,
// поэтому разные синтаксисы и наборы хелперов живут рядом.
type Dialect struct {
	// Builtins: хелперы и ключевые слова; голая ссылка на них данных не требует,
	// но их аргументы разбираются всегда.
	Builtins []string `yaml:"builtins"`
	// Iterate: блоки перебора коллекции (each, range).
	Iterate []string `yaml:"iterate"`
	// Rebind: блоки смены контекста (with).
	Rebind []string `yaml:"rebind"`
}

// DefaultDialect возвращает словарь по умолчанию для вида шаблона.
func DefaultDialect(kind Kind) Dialect {
	switch kind {
	case KindGoTemplate:
		// функции text/template приходят подвыражениями, а не ссылками,
		// поэтому .len остаётся полем и словарь хелперов не нужен
		return Dialect{
			Iterate: []string{"range"},
			Rebind:  []string{"with", "template"},
		}
	case KindWorkbook:
		return Dialect{
			Builtins: []string{"len", "exists", "join", "iif", "path", "if", "each", "each-obj"},
			Iterate:  []string{"each", "each-obj"},
		}
	}
	return Dialect{
		Builtins: []string{
			"if", "unless", "each", "with", "lookup", "log", "else",
			"eq", "ne", "neq", "lt", "gt", "lte", "gte", "and", "or", "not",
			"formatCurrency", "formatDate", "formatNumber", "formatPercent",
			"uppercase", "lowercase", "json", "default",
		},
		Iterate: []string{"each"},
		Rebind:  []string{"with"},
	}
}
