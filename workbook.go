package fieldbind

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	exprast "github.com/expr-lang/expr/ast"
	exprparser "github.com/expr-lang/expr/parser"
	"github.com/xuri/excelize/v2"
)

// Шаблоны-книги Excel с явным синтаксисом {{...}} в ячейках:
// - {{= expr}}
// - {{#each path as $item i=$i}} ... {{/each}}
// - {{#each-obj path as $k $v}} ... {{/each-obj}}
// - {{#if expr}} ... {{else}} ... {{/if}}
// Здесь они только разбираются в нейтральное дерево; рендер книги делает внешний конвейер.

var (
	rxCtrlEach       = regexp.MustCompile(`^\{\{#each\s+(.+?)\}\}$`)
	rxCtrlEachObj    = regexp.MustCompile(`^\{\{#each-obj\s+(.+?)\}\}$`)
	rxCtrlEndEach    = regexp.MustCompile(`^\{\{\/each\}\}$`)
	rxCtrlEndEachObj = regexp.MustCompile(`^\{\{\/each-obj\}\}$`)
	rxCtrlIf         = regexp.MustCompile(`^\{\{#if\s+(.+?)\}\}$`)
	rxCtrlElse       = regexp.MustCompile(`^\{\{else\}\}$`)
	rxCtrlEndIf      = regexp.MustCompile(`^\{\{\/if\}\}$`)
	rxExpr           = regexp.MustCompile(`\{\{=\s*([\s\S]+?)\s*\}\}`)

	rxBarePath = regexp.MustCompile(`^[$.\p{L}_][\p{L}\p{N}_.$\[\]]*$`)
	rxPathCall = regexp.MustCompile(`path\("([^"]*)"\)`)
)

// ParseWorkbook разбирает все листы книги в одно дерево (листы по порядку книги).
func ParseWorkbook(path string) (*Program, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out := &Program{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		p, err := ParseSheetRows(sheet, rows)
		if err != nil {
			return nil, err
		}
		out.Body = append(out.Body, p.Body...)
	}
	return out, nil
}

type marker int

const (
	markNone marker = iota
	markEach
	markEachObj
	markIf
	markElse
	markEndEach
	markEndIf
)

// classify узнаёт управляющий маркер в ячейке и возвращает его аргумент.
func classify(cell string) (marker, string) {
	switch {
	case rxCtrlEach.MatchString(cell):
		return markEach, rxCtrlEach.FindStringSubmatch(cell)[1]
	case rxCtrlEachObj.MatchString(cell):
		return markEachObj, rxCtrlEachObj.FindStringSubmatch(cell)[1]
	case rxCtrlIf.MatchString(cell):
		return markIf, rxCtrlIf.FindStringSubmatch(cell)[1]
	case rxCtrlElse.MatchString(cell):
		return markElse, ""
	case rxCtrlEndEach.MatchString(cell), rxCtrlEndEachObj.MatchString(cell):
		return markEndEach, ""
	case rxCtrlEndIf.MatchString(cell):
		return markEndIf, ""
	}
	return markNone, ""
}

// ParseSheetRows строит дерево по строкам листа: управляющие маркеры открывают
// и закрывают блоки, выражения {{= ...}} становятся ссылками и подвыражениями.
// Строка с маркером целиком управляющая, прочие её ячейки не читаются.
func ParseSheetRows(sheet string, rows [][]string) (*Program, error) {
	type open struct {
		loop   bool
		row    int
		block  *Block
		target *Program
	}
	root := &Program{}
	var stack []*open

	emit := func(n Node) {
		t := root
		if len(stack) > 0 {
			t = stack[len(stack)-1].target
		}
		t.Body = append(t.Body, n)
	}
	push := func(loop bool, row int, b *Block) {
		b.Body = &Program{}
		stack = append(stack, &open{loop: loop, row: row, block: b, target: b.Body})
	}
	top := func(loop bool) *open {
		if len(stack) == 0 || stack[len(stack)-1].loop != loop {
			return nil
		}
		return stack[len(stack)-1]
	}

	for rIdx, row := range rows {
		rowNum := rIdx + 1
		m, arg := markNone, ""
		for _, cell := range row {
			if m, arg = classify(strings.TrimSpace(cell)); m != markNone {
				break
			}
		}
		switch m {
		case markNone:
			for _, cell := range row {
				for _, e := range cellExprs(cell) {
					emit(cellExpr(e))
				}
			}
		case markEach:
			path, item, index := parseEachHeader(arg)
			b := &Block{Keyword: "each", Params: []Node{cellPath(path)}, Index: index}
			// "$" по умолчанию означает текущий элемент, а не псевдоним
			if item != "$" {
				b.Item = item
			}
			push(true, rowNum, b)
		case markEachObj:
			path, key, val := parseEachObjHeader(arg)
			push(true, rowNum, &Block{Keyword: "each-obj", Params: []Node{cellPath(path)}, Item: val, Index: key})
		case markIf:
			push(false, rowNum, &Block{Keyword: "if", Params: []Node{cellExpr(arg)}})
		case markElse:
			it := top(false)
			if it == nil || it.block.Else != nil {
				return nil, fmt.Errorf("лист %s: некорректный else на строке %d", sheet, rowNum)
			}
			it.block.Else = &Program{}
			it.target = it.block.Else
		case markEndEach, markEndIf:
			loop := m == markEndEach
			it := top(loop)
			if it == nil {
				name := "/if"
				if loop {
					name = "/each"
				}
				return nil, fmt.Errorf("лист %s: некорректный %s на строке %d", sheet, name, rowNum)
			}
			stack = stack[:len(stack)-1]
			emit(it.block)
		}
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("лист %s: несбалансированные блоки each/if (открыт на строке %d)", sheet, stack[len(stack)-1].row)
	}
	return root, nil
}

// cellExprs возвращает тексты всех {{= ...}} в ячейке; окружающий текст данных не несёт.
func cellExprs(cell string) []string {
	var out []string
	for _, m := range rxExpr.FindAllStringSubmatch(cell, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// parseEachHeader: path [as $item] [i=$i].
func parseEachHeader(src string) (path, itemVar, indexVar string) {
	itemVar = "$"
	var head []string
	parts := strings.Fields(src)
	for i := 0; i < len(parts); i++ {
		switch p := parts[i]; {
		case p == "as" && i+1 < len(parts):
			itemVar = parts[i+1]
			i++
		case strings.HasPrefix(p, "i="):
			indexVar = strings.TrimPrefix(p, "i=")
		case p == "as":
		case itemVar == "$" && indexVar == "":
			head = append(head, p)
		}
	}
	return strings.Join(head, " "), itemVar, indexVar
}

// parseEachObjHeader: path [as $k [$v]].
func parseEachObjHeader(src string) (path, keyVar, valVar string) {
	keyVar, valVar = "$k", "$v"
	parts := strings.Fields(src)
	if len(parts) > 0 {
		path = parts[0]
	}
	if len(parts) >= 3 && parts[1] == "as" {
		keyVar = parts[2]
		if len(parts) >= 4 {
			valVar = parts[3]
		}
	}
	return path, keyVar, valVar
}

// -----------------------------
// Пути и выражения ячеек
// -----------------------------

// cellPath переводит путь ячейки в ссылку:
// $.a / $root.a / a: от корня; .a: от текущего элемента; $x.a: псевдоним;
// a[1] даёт сегмент 1, динамический индекс a[$i] обрывает статический путь.
func cellPath(p string) Node {
	p = strings.TrimSpace(p)
	switch {
	case p == "" || p == ".":
		return &Ref{Self: true}
	case p == "$" || p == "$root":
		return &Ref{Self: true, Root: true}
	}
	var (
		head string
		rest string
		ref  = &Ref{}
	)
	switch {
	case strings.HasPrefix(p, "$root."):
		ref.Root, rest = true, p[len("$root."):]
	case strings.HasPrefix(p, "$."):
		ref.Root, rest = true, p[2:]
	case strings.HasPrefix(p, "$"):
		end := strings.IndexAny(p, ".[")
		if end < 0 {
			end = len(p)
		}
		head, rest = p[:end], strings.TrimPrefix(p[end:], ".")
		ref.Local = true
	case strings.HasPrefix(p, "."):
		rest = p[1:]
	default:
		ref.Root, rest = true, p
	}

	var segs []string
	if head != "" {
		segs = append(segs, head)
	}
	dynamic := ""
	for rest != "" {
		seg, tail := nextSeg(rest)
		if strings.HasPrefix(seg, "[") {
			inner := strings.TrimSpace(strings.Trim(seg, "[]"))
			if _, ok := Index(inner); !ok {
				dynamic = inner
				break
			}
			seg = inner
		}
		if seg != "" {
			segs = append(segs, seg)
		}
		rest = tail
	}
	ref.Path = strings.Join(segs, ".")
	if ref.Path == "" {
		ref.Self = true
	}
	if dynamic == "" {
		return ref
	}
	return &SubExpr{Name: "index", Params: []Node{ref, cellExpr(dynamic)}}
}

func nextSeg(path string) (seg string, tail string) {
	if path == "" {
		return "", ""
	}
	if path[0] == '[' {
		if i := strings.Index(path, "]"); i >= 0 {
			seg = path[:i+1]
			if i+1 < len(path) && path[i+1] == '.' {
				tail = path[i+2:]
			} else {
				tail = path[i+1:]
			}
			return
		}
	}
	i := 0
	for i < len(path) && path[i] != '.' && path[i] != '[' {
		i++
	}
	seg = path[:i]
	if i < len(path) && path[i] == '.' {
		tail = path[i+1:]
	} else {
		tail = path[i:]
	}
	return
}

// cellExpr разбирает выражение ячейки через expr-lang; пути предварительно
// обёрнуты в path("..."), потому что expr не знает нотацию $.
func cellExpr(src string) Node {
	src = strings.TrimSpace(src)
	if rxBarePath.MatchString(src) && src != "true" && src != "false" && src != "nil" {
		return cellPath(src)
	}
	wrapped := wrapCellPaths(src)
	tree, err := exprparser.Parse(wrapped)
	if err != nil {
		// выражение не разобралось, берём хотя бы явные пути
		sub := &SubExpr{Name: "expr"}
		for _, m := range rxPathCall.FindAllStringSubmatch(wrapped, -1) {
			sub.Params = append(sub.Params, cellPath(m[1]))
		}
		return sub
	}
	return fromExpr(tree.Node)
}

func fromExpr(n exprast.Node) Node {
	switch v := n.(type) {
	case *exprast.CallNode:
		if id, ok := v.Callee.(*exprast.IdentifierNode); ok && id.Value == "path" && len(v.Arguments) == 1 {
			if s, ok := v.Arguments[0].(*exprast.StringNode); ok {
				return cellPath(s.Value)
			}
		}
		name := ""
		if id, ok := v.Callee.(*exprast.IdentifierNode); ok {
			name = id.Value
		}
		return &SubExpr{Name: name, Params: fromExprs(v.Arguments)}
	case *exprast.BuiltinNode:
		return &SubExpr{Name: v.Name, Params: fromExprs(v.Arguments)}
	case *exprast.BinaryNode:
		return &SubExpr{Name: v.Operator, Params: []Node{fromExpr(v.Left), fromExpr(v.Right)}}
	case *exprast.UnaryNode:
		return &SubExpr{Name: v.Operator, Params: []Node{fromExpr(v.Node)}}
	case *exprast.ConditionalNode:
		return &SubExpr{Name: "?:", Params: []Node{fromExpr(v.Cond), fromExpr(v.Exp1), fromExpr(v.Exp2)}}
	case *exprast.IdentifierNode:
		return cellPath(v.Value)
	case *exprast.MemberNode:
		if p, ok := memberPath(v); ok {
			return cellPath(p)
		}
		return &SubExpr{Name: "member", Params: []Node{fromExpr(v.Node)}}
	case *exprast.ArrayNode:
		return &SubExpr{Name: "array", Params: fromExprs(v.Nodes)}
	case *exprast.StringNode:
		return &Literal{Value: v.Value}
	case *exprast.IntegerNode:
		return &Literal{Value: strconv.Itoa(v.Value)}
	case *exprast.FloatNode:
		return &Literal{Value: strconv.FormatFloat(v.Value, 'g', -1, 64)}
	case *exprast.BoolNode:
		return &Literal{Value: strconv.FormatBool(v.Value)}
	case *exprast.NilNode:
		return &Literal{}
	}
	// прочие конструкции (замыкания, срезы, map): достаём path(...) изнутри
	return &SubExpr{Name: "expr", Params: collectPathCalls(n)}
}

func fromExprs(in []exprast.Node) []Node {
	out := make([]Node, 0, len(in))
	for _, n := range in {
		out = append(out, fromExpr(n))
	}
	return out
}

// memberPath собирает a.b[0].c из цепочки MemberNode с литеральными свойствами.
func memberPath(m *exprast.MemberNode) (string, bool) {
	var base string
	switch b := m.Node.(type) {
	case *exprast.IdentifierNode:
		base = b.Value
	case *exprast.MemberNode:
		p, ok := memberPath(b)
		if !ok {
			return "", false
		}
		base = p
	default:
		return "", false
	}
	switch prop := m.Property.(type) {
	case *exprast.StringNode:
		return base + "." + prop.Value, true
	case *exprast.IntegerNode:
		return base + "." + strconv.Itoa(prop.Value), true
	}
	return "", false
}

type pathCallCollector struct {
	found []Node
}

func (c *pathCallCollector) Visit(node *exprast.Node) {
	call, ok := (*node).(*exprast.CallNode)
	if !ok || len(call.Arguments) != 1 {
		return
	}
	id, ok := call.Callee.(*exprast.IdentifierNode)
	if !ok || id.Value != "path" {
		return
	}
	if s, ok := call.Arguments[0].(*exprast.StringNode); ok {
		c.found = append(c.found, cellPath(s.Value))
	}
}

func collectPathCalls(n exprast.Node) []Node {
	c := &pathCallCollector{}
	exprast.Walk(&n, c)
	return c.found
}

// wrapCellPaths преобразует обращения вида $.a.b, $var.c[d] и .rel в path("...")
// для expr-lang. Участки в кавычках не трогает.
func wrapCellPaths(src string) string {
	if !strings.ContainsAny(src, "$.") {
		return src
	}
	var out strings.Builder
	inQuote := byte(0)
	i := 0
	for i < len(src) {
		ch := src[i]
		if inQuote == 0 && (ch == '\'' || ch == '"') {
			inQuote = ch
			out.WriteByte(ch)
			i++
			continue
		}
		if inQuote != 0 {
			out.WriteByte(ch)
			if ch == inQuote {
				inQuote = 0
			}
			i++
			continue
		}
		relative := ch == '.' && i+1 < len(src) && isIdentByte(src[i+1]) && !isDigit(src[i+1]) &&
			(i == 0 || !(isIdentByte(src[i-1]) || src[i-1] == ')' || src[i-1] == ']'))
		if ch == '$' || relative {
			start := i
			j := i + 1
			if ch == '$' {
				// либо точка (для $.), либо имя переменной
				if j < len(src) && src[j] == '.' {
					j++
				} else {
					for j < len(src) && isIdentByte(src[j]) {
						j++
					}
					if j < len(src) && src[j] == '.' {
						j++
					}
				}
			}
			k := j
			for k < len(src) && (isIdentByte(src[k]) || src[k] == '.' || src[k] == '[' || src[k] == ']' || src[k] == '$') {
				k++
			}
			if k > start+1 {
				out.WriteString(`path("`)
				out.WriteString(src[start:k])
				out.WriteString(`")`)
				i = k
				continue
			}
		}
		out.WriteByte(ch)
		i++
	}
	return out.String()
}

// isIdentByte: латиница, цифры, _ и байты UTF-8 (кириллические ключи).
func isIdentByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigit(c) || c == '_' || c >= 0x80
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
