package fieldbind

import (
	"fmt"
	"strings"
	"text/template/parse"
)

// ParseGoTemplate разбирает шаблон text/template без проверки функций
// и переводит его в нейтральное дерево. {{template "x" .Foo}} раскрывается
// телом определения x как блок смены контекста.
func ParseGoTemplate(name, src string) (*Program, error) {
	set := map[string]*parse.Tree{}
	t := parse.New(name)
	t.Mode = parse.SkipFuncCheck
	if _, err := t.Parse(src, "{{", "}}", set); err != nil {
		return nil, fmt.Errorf("text/template: %w", err)
	}
	c := &goConverter{set: set, active: map[string]bool{name: true}}
	return c.list(t.Root)
}

type goConverter struct {
	set    map[string]*parse.Tree
	active map[string]bool // определения, раскрываемые сейчас (защита от рекурсии)
}

func (c *goConverter) list(l *parse.ListNode) (*Program, error) {
	if l == nil {
		return nil, nil
	}
	out := &Program{}
	for _, n := range l.Nodes {
		v, err := c.node(n)
		if err != nil {
			return nil, err
		}
		if v != nil {
			out.Body = append(out.Body, v)
		}
	}
	return out, nil
}

func (c *goConverter) node(n parse.Node) (Node, error) {
	switch v := n.(type) {
	case *parse.TextNode:
		return &Text{Value: string(v.Text)}, nil
	case *parse.CommentNode, *parse.BreakNode, *parse.ContinueNode:
		return nil, nil
	case *parse.ActionNode:
		return c.pipe(v.Pipe)
	case *parse.IfNode:
		return c.branch("if", &v.BranchNode)
	case *parse.RangeNode:
		return c.branch("range", &v.BranchNode)
	case *parse.WithNode:
		return c.branch("with", &v.BranchNode)
	case *parse.TemplateNode:
		return c.template(v)
	case *parse.ListNode:
		return c.list(v)
	}
	return nil, &ExtractionError{Kind: fmt.Sprintf("%T", n), Detail: "неизвестный узел text/template"}
}

func (c *goConverter) branch(keyword string, b *parse.BranchNode) (Node, error) {
	col, err := c.pipe(b.Pipe)
	if err != nil {
		return nil, err
	}
	blk := &Block{Keyword: keyword}
	if col != nil {
		blk.Params = []Node{col}
	}
	// {{range $i, $e := .Items}} / {{with $x := .Foo}}
	if b.Pipe != nil {
		switch decl := b.Pipe.Decl; {
		case len(decl) == 1:
			blk.Item = decl[0].Ident[0]
		case len(decl) >= 2:
			blk.Index = decl[0].Ident[0]
			blk.Item = decl[1].Ident[0]
		}
	}
	if blk.Body, err = c.list(b.List); err != nil {
		return nil, err
	}
	if blk.Else, err = c.list(b.ElseList); err != nil {
		return nil, err
	}
	return blk, nil
}

func (c *goConverter) template(t *parse.TemplateNode) (Node, error) {
	arg, err := c.pipe(t.Pipe)
	if err != nil {
		return nil, err
	}
	blk := &Block{Keyword: "template"}
	if arg == nil {
		// без аргумента определение получает nil и данных не читает
		return blk, nil
	}
	blk.Params = []Node{arg}
	def, ok := c.set[t.Name]
	if !ok || c.active[t.Name] {
		return blk, nil
	}
	c.active[t.Name] = true
	defer delete(c.active, t.Name)
	if blk.Body, err = c.list(def.Root); err != nil {
		return nil, err
	}
	return blk, nil
}

// pipe: одна команда даёт свой узел, конвейер даёт подвыражение из всех команд.
func (c *goConverter) pipe(p *parse.PipeNode) (Node, error) {
	if p == nil || len(p.Cmds) == 0 {
		return nil, nil
	}
	cmds := make([]Node, 0, len(p.Cmds))
	for _, cmd := range p.Cmds {
		v, err := c.command(cmd)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, v)
	}
	if len(cmds) == 1 {
		return cmds[0], nil
	}
	return &SubExpr{Name: "pipeline", Params: cmds}, nil
}

func (c *goConverter) command(cmd *parse.CommandNode) (Node, error) {
	if len(cmd.Args) == 0 {
		return nil, &ExtractionError{Kind: "command", Detail: "пустая команда"}
	}
	args := make([]Node, 0, len(cmd.Args)-1)
	for _, a := range cmd.Args[1:] {
		v, err := c.arg(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	// в text/template идентификатор всегда функция, не данные
	if id, ok := cmd.Args[0].(*parse.IdentifierNode); ok {
		return &SubExpr{Name: id.Ident, Params: args}, nil
	}
	head, err := c.arg(cmd.Args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return head, nil
	}
	if ref, ok := head.(*Ref); ok {
		// .Method arg
		ref.Params = args
		return ref, nil
	}
	return &SubExpr{Params: append([]Node{head}, args...)}, nil
}

func (c *goConverter) arg(n parse.Node) (Node, error) {
	switch v := n.(type) {
	case *parse.FieldNode:
		return &Ref{Path: strings.Join(v.Ident, ".")}, nil
	case *parse.VariableNode:
		return goVariable(v.Ident), nil
	case *parse.DotNode:
		return &Ref{Self: true}, nil
	case *parse.ChainNode:
		// у (...).Field поле результата вызова статически не известно
		inner, err := c.arg(v.Node)
		if err != nil {
			return nil, err
		}
		return &SubExpr{Name: "chain", Params: []Node{inner}}, nil
	case *parse.PipeNode:
		p, err := c.pipe(v)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return &Literal{}, nil
		}
		return &SubExpr{Name: "pipeline", Params: []Node{p}}, nil
	case *parse.IdentifierNode:
		return &SubExpr{Name: v.Ident}, nil
	case *parse.StringNode:
		return &Literal{Value: v.Text}, nil
	case *parse.NumberNode:
		return &Literal{Value: v.Text}, nil
	case *parse.BoolNode:
		return &Literal{Value: fmt.Sprint(v.True)}, nil
	case *parse.NilNode:
		return &Literal{}, nil
	}
	return nil, &ExtractionError{Kind: fmt.Sprintf("%T", n), Detail: "неизвестный аргумент text/template"}
}

// goVariable: $ и $.A от корня, $x.A от локальной переменной.
func goVariable(ident []string) *Ref {
	if len(ident) == 0 {
		return &Ref{Self: true}
	}
	if ident[0] == "$" {
		return &Ref{Path: strings.Join(ident[1:], "."), Root: true, Self: len(ident) == 1}
	}
	return &Ref{Path: strings.Join(ident, "."), Local: true}
}
