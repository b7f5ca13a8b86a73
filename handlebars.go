package fieldbind

import (
	"fmt"
	"strings"

	"github.com/aymerick/raymond/ast"
	"github.com/aymerick/raymond/parser"
)

// ParseHandlebars разбирает Handlebars-шаблон и переводит AST raymond в нейтральное дерево.
func ParseHandlebars(src string) (*Program, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("handlebars: %w", err)
	}
	return hbsProgram(prog)
}

func hbsProgram(p *ast.Program) (*Program, error) {
	if p == nil {
		return nil, nil
	}
	out := &Program{}
	for _, st := range p.Body {
		n, err := hbsStatement(st)
		if err != nil {
			return nil, err
		}
		if n != nil {
			out.Body = append(out.Body, n)
		}
	}
	return out, nil
}

func hbsStatement(st ast.Node) (Node, error) {
	switch s := st.(type) {
	case *ast.ContentStatement:
		return &Text{Value: s.Value}, nil
	case *ast.CommentStatement:
		return nil, nil
	case *ast.MustacheStatement:
		return hbsExpression(s.Expression)
	case *ast.BlockStatement:
		return hbsBlock(s)
	case *ast.PartialStatement:
		// имя партиала не данные, но его аргументы данные
		params, err := hbsNodes(s.Params)
		if err != nil {
			return nil, err
		}
		hash, err := hbsHash(s.Hash)
		if err != nil {
			return nil, err
		}
		return &SubExpr{Name: "partial", Params: params, Hash: hash}, nil
	}
	return nil, &ExtractionError{Kind: fmt.Sprintf("%T", st), Detail: "неизвестная инструкция handlebars"}
}

func hbsBlock(s *ast.BlockStatement) (Node, error) {
	if s.Expression == nil {
		return nil, &ExtractionError{Kind: "block", Detail: "блок без выражения"}
	}
	path, ok := s.Expression.Path.(*ast.PathExpression)
	if !ok || len(path.Parts) == 0 {
		return nil, &ExtractionError{Kind: "block", Detail: "блок без имени хелпера"}
	}
	params, err := hbsNodes(s.Expression.Params)
	if err != nil {
		return nil, err
	}
	hash, err := hbsHash(s.Expression.Hash)
	if err != nil {
		return nil, err
	}
	b := &Block{Keyword: strings.Join(path.Parts, "."), Params: params, Hash: hash}
	if b.Body, err = hbsProgram(s.Program); err != nil {
		return nil, err
	}
	if b.Else, err = hbsProgram(s.Inverse); err != nil {
		return nil, err
	}
	// {{#each items as |item idx|}}
	if s.Program != nil {
		if len(s.Program.BlockParams) > 0 {
			b.Item = s.Program.BlockParams[0]
		}
		if len(s.Program.BlockParams) > 1 {
			b.Index = s.Program.BlockParams[1]
		}
	}
	return b, nil
}

// hbsExpression разбирает {{path param... key=val}}.
func hbsExpression(e *ast.Expression) (Node, error) {
	if e == nil {
		return nil, &ExtractionError{Kind: "mustache", Detail: "пустое выражение"}
	}
	params, err := hbsNodes(e.Params)
	if err != nil {
		return nil, err
	}
	hash, err := hbsHash(e.Hash)
	if err != nil {
		return nil, err
	}
	head, err := hbsNode(e.Path)
	if err != nil {
		return nil, err
	}
	ref, ok := head.(*Ref)
	if !ok {
		// {{"literal" x}}: литерал в голове, аргументы всё равно данные
		return &SubExpr{Params: params, Hash: hash}, nil
	}
	ref.Params, ref.Hash = params, hash
	return ref, nil
}

func hbsNode(n ast.Node) (Node, error) {
	switch v := n.(type) {
	case *ast.PathExpression:
		return hbsPath(v), nil
	case *ast.SubExpression:
		inner, err := hbsExpression(v.Expression)
		if err != nil {
			return nil, err
		}
		if ref, ok := inner.(*Ref); ok {
			// в подвыражении голова всегда хелпер
			return &SubExpr{Name: ref.Path, Params: ref.Params, Hash: ref.Hash}, nil
		}
		return inner, nil
	case *ast.StringLiteral:
		return &Literal{Value: v.Value}, nil
	case *ast.NumberLiteral:
		return &Literal{Value: fmt.Sprint(v.Value)}, nil
	case *ast.BooleanLiteral:
		return &Literal{Value: fmt.Sprint(v.Value)}, nil
	case nil:
		return nil, &ExtractionError{Kind: "nil", Detail: "пустой аргумент handlebars"}
	}
	return nil, &ExtractionError{Kind: fmt.Sprintf("%T", n), Detail: "неизвестный аргумент handlebars"}
}

func hbsPath(p *ast.PathExpression) *Ref {
	if p.Data {
		// @root.a.b от корня, прочие @index/@key/@first данных не требуют
		if len(p.Parts) > 0 && p.Parts[0] == "root" {
			return &Ref{Path: strings.Join(p.Parts[1:], "."), Root: true, Self: len(p.Parts) == 1}
		}
		return &Ref{Path: strings.Join(p.Parts, "."), Data: true, Self: len(p.Parts) == 0}
	}
	return &Ref{Path: strings.Join(p.Parts, "."), Up: p.Depth, Self: len(p.Parts) == 0}
}

func hbsNodes(in []ast.Node) ([]Node, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Node, 0, len(in))
	for _, n := range in {
		v, err := hbsNode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func hbsHash(h *ast.Hash) ([]Pair, error) {
	if h == nil {
		return nil, nil
	}
	out := make([]Pair, 0, len(h.Pairs))
	for _, p := range h.Pairs {
		v, err := hbsNode(p.Val)
		if err != nil {
			return nil, err
		}
		out = append(out, Pair{Key: p.Key, Value: v})
	}
	return out, nil
}
