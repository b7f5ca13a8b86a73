package fieldbind

import "fmt"

// Extractor обходит синтаксическое дерево и собирает точечные пути,
// от которых зависит шаблон. Не изменяет дерево и не хранит состояния между вызовами.
type Extractor struct {
	builtins map[string]struct{}
	scoped   map[string]struct{}
}

func NewExtractor(d Dialect) *Extractor {
	e := &Extractor{builtins: map[string]struct{}{}, scoped: map[string]struct{}{}}
	for _, k := range d.Builtins {
		e.builtins[k] = struct{}{}
	}
	// each и with отличаются только смыслом для рендера; для путей они одинаковы
	for _, k := range d.Iterate {
		e.scoped[k] = struct{}{}
	}
	for _, k := range d.Rebind {
		e.scoped[k] = struct{}{}
	}
	return e
}

// ExtractFields сокращает NewExtractor(d).Extract(p).
func ExtractFields(p *Program, d Dialect) ([]string, error) {
	return NewExtractor(d).Extract(p)
}

// Extract возвращает отсортированный список путей без повторов.
func (e *Extractor) Extract(p *Program) ([]string, error) {
	if p == nil {
		return nil, &ExtractionError{Kind: ProgramNode.String(), Detail: "пустое дерево"}
	}
	acc, err := e.program(p, scope{{}}, FieldSet{})
	if err != nil {
		return nil, err
	}
	return acc.Slice(), nil
}

// frame хранит область данных: префикс и псевдонимы, объявленные блоком.
type frame struct {
	prefix string
	item   string
	index  string
}

// scope не изменяется: push возвращает новый стек.
type scope []frame

func (s scope) push(f frame) scope {
	out := make(scope, len(s)+1)
	copy(out, s)
	out[len(s)] = f
	return out
}

func (s scope) at(up int) frame {
	i := len(s) - 1 - up
	if i < 0 {
		i = 0
	}
	return s[i]
}

type location int

const (
	locNone  location = iota // данных не требует
	locSelf                  // элемент области целиком
	locField                 // конкретное поле
)

func (e *Extractor) program(p *Program, sc scope, acc FieldSet) (FieldSet, error) {
	if p == nil {
		return acc, nil
	}
	for _, n := range p.Body {
		var err error
		if acc, err = e.node(n, sc, acc); err != nil {
			return acc, err
		}
	}
	return acc, nil
}

func (e *Extractor) node(n Node, sc scope, acc FieldSet) (FieldSet, error) {
	switch nn := n.(type) {
	case nil:
		return acc, &ExtractionError{Kind: "nil", Detail: "пустой узел"}
	case *Program:
		if nn == nil {
			return acc, &ExtractionError{Kind: ProgramNode.String(), Detail: "пустой узел"}
		}
		return e.program(nn, sc, acc)
	case *Ref:
		if nn == nil {
			return acc, &ExtractionError{Kind: RefNode.String(), Detail: "пустой узел"}
		}
		return e.ref(nn, sc, acc)
	case *Block:
		if nn == nil {
			return acc, &ExtractionError{Kind: BlockNode.String(), Detail: "пустой узел"}
		}
		return e.block(nn, sc, acc)
	case *SubExpr:
		if nn == nil {
			return acc, &ExtractionError{Kind: SubExprNode.String(), Detail: "пустой узел"}
		}
		// тот же префикс, что и у вызывающего
		return e.args(nn.Params, nn.Hash, sc, acc)
	case *Literal, *Text:
		return acc, nil
	default:
		return acc, &ExtractionError{Kind: fmt.Sprintf("%s (%T)", n.Kind(), n), Detail: "неизвестная реализация узла"}
	}
}

func (e *Extractor) ref(r *Ref, sc scope, acc FieldSet) (FieldSet, error) {
	if r.Path == "" && !r.Self {
		return acc, &ExtractionError{Kind: RefNode.String(), Detail: "ссылка без пути"}
	}
	if path, loc := e.locate(r, sc); loc == locField {
		acc = acc.With(path)
	}
	// аргументы хелперов тоже данные
	return e.args(r.Params, r.Hash, sc, acc)
}

func (e *Extractor) block(b *Block, sc scope, acc FieldSet) (FieldSet, error) {
	if b.Keyword == "" {
		return acc, &ExtractionError{Kind: BlockNode.String(), Detail: "блок без ключевого слова"}
	}
	acc, err := e.args(b.Params, b.Hash, sc, acc)
	if err != nil {
		return acc, err
	}
	inner := sc
	if _, ok := e.scoped[b.Keyword]; ok {
		f := frame{prefix: sc.at(0).prefix, item: b.Item, index: b.Index}
		if len(b.Params) > 0 {
			if r, ok := b.Params[0].(*Ref); ok && r != nil {
				if path, loc := e.locate(r, sc); loc != locNone {
					f.prefix = path
				}
			}
		}
		inner = sc.push(f)
	}
	if acc, err = e.program(b.Body, inner, acc); err != nil {
		return acc, err
	}
	// else выполняется во внешнем контексте
	return e.program(b.Else, sc, acc)
}

func (e *Extractor) args(params []Node, hash []Pair, sc scope, acc FieldSet) (FieldSet, error) {
	var err error
	for _, p := range params {
		if acc, err = e.node(p, sc, acc); err != nil {
			return acc, err
		}
	}
	for _, h := range hash {
		if h.Value == nil {
			return acc, &ExtractionError{Kind: "hash", Detail: fmt.Sprintf("аргумент %q без значения", h.Key)}
		}
		if acc, err = e.node(h.Value, sc, acc); err != nil {
			return acc, err
		}
	}
	return acc, nil
}

// locate определяет, на какие данные указывает ссылка в текущей области.
func (e *Extractor) locate(r *Ref, sc scope) (string, location) {
	switch {
	case r.Data:
		return "", locNone
	case r.Root && r.Path == "":
		return "", locSelf
	case r.Root:
		return r.Path, locField
	case r.Path == "":
		return sc.at(r.Up).prefix, locSelf
	}
	head, rest := splitFirst(r.Path, ".")
	for i := len(sc) - 1; i >= 0; i-- {
		f := sc[i]
		if f.item != "" && head == f.item {
			if rest == "" {
				return f.prefix, locSelf
			}
			return JoinPath(f.prefix, rest), locField
		}
		if f.index != "" && head == f.index {
			return "", locNone
		}
	}
	if r.Local {
		return "", locNone
	}
	if _, ok := e.builtins[head]; ok && r.Up == 0 {
		return "", locNone
	}
	return JoinPath(sc.at(r.Up).prefix, r.Path), locField
}
