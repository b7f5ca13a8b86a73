package fieldbind

// -----------------------------
// Нейтральное синтаксическое дерево шаблона
// -----------------------------
//
// Каждый поддерживаемый синтаксис (Handlebars, text/template, ячейки книги Excel)
// переводится в эти узлы, а Extractor работает только с ними.

// NodeKind задаёт вид узла дерева.
type NodeKind int

const (
	ProgramNode NodeKind = iota
	RefNode
	BlockNode
	SubExprNode
	LiteralNode
	TextNode
)

func (k NodeKind) String() string {
	switch k {
	case ProgramNode:
		return "program"
	case RefNode:
		return "ref"
	case BlockNode:
		return "block"
	case SubExprNode:
		return "subexpr"
	case LiteralNode:
		return "literal"
	case TextNode:
		return "text"
	}
	return "unknown"
}

type Node interface {
	Kind() NodeKind
}

// Program содержит тело шаблона или блока.
type Program struct {
	Body []Node
}

// Ref описывает ссылку на переменную или вызов хелпера с аргументами.
type Ref struct {
	Path   string // точечный путь; пустой допустим только при Self
	Self   bool   // this / . / $: текущий элемент целиком
	Root   bool   // путь от корня данных, области игнорируются
	Up     int    // сколько областей подняться (../)
	Data   bool   // служебная переменная (@index, @key), данных не требует
	Local  bool   // локальная переменная шаблона ($x)
	Params []Node
	Hash   []Pair
}

// Block описывает блочную конструкцию: each/with/if/хелпер.
type Block struct {
	Keyword string
	Params  []Node
	Hash    []Pair
	Item    string // псевдоним элемента (as |item|, $it)
	Index   string // псевдоним индекса/ключа
	Body    *Program
	Else    *Program
}

// SubExpr описывает вложенный вызов хелпера/оператора в позиции аргумента.
type SubExpr struct {
	Name   string
	Params []Node
	Hash   []Pair
}

type Literal struct {
	Value string
}

type Text struct {
	Value string
}

// Pair хранит именованный аргумент key=value.
type Pair struct {
	Key   string
	Value Node
}

func (*Program) Kind() NodeKind { return ProgramNode }
func (*Ref) Kind() NodeKind     { return RefNode }
func (*Block) Kind() NodeKind   { return BlockNode }
func (*SubExpr) Kind() NodeKind { return SubExprNode }
func (*Literal) Kind() NodeKind { return LiteralNode }
func (*Text) Kind() NodeKind    { return TextNode }
