// Package ingest builds syntax trees from source files using tree-sitter.
// Only Java is supported; every method and constructor of a compilation unit is
// converted eagerly so that several analyses can share one parse.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/l3aro/go-flow-graph/pkg/syntax"
)

var (
	// ErrMethodNotFound is returned when no method matches the requested name.
	ErrMethodNotFound = errors.New("method not found")
	// ErrSyntax is returned when the selected method contains parse errors.
	ErrSyntax = errors.New("syntax error")
)

// MethodInfo describes one method found in a file.
type MethodInfo struct {
	Class string `json:"class" toon:"class"`
	Name  string `json:"name" toon:"name"`
	// Selector names the method uniquely within its file: the qualified name,
	// followed by the parameter types when the name is overloaded.
	Selector string         `json:"selector" toon:"selector"`
	Line     int            `json:"line" toon:"line"`
	HasError bool           `json:"has_error" toon:"has_error"`
	Method   *syntax.Method `json:"-" msgpack:"-" toon:"-"`
}

// QualifiedName returns "Class.method", or the bare name for top-level methods.
func (m MethodInfo) QualifiedName() string {
	if m.Class == "" {
		return m.Name
	}
	return m.Class + "." + m.Name
}

// File is a parsed Java compilation unit.
type File struct {
	Path    string
	Source  syntax.Source
	Methods []MethodInfo
}

// ParseJavaFile reads and parses the Java file at path.
func ParseJavaFile(ctx context.Context, path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	f, err := ParseJava(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// ParseJava parses Java source. A bare method body or method declaration without an
// enclosing class is accepted as well: tree-sitter recovers those at the top level.
func ParseJava(ctx context.Context, content []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(java.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter: %w", err)
	}
	defer tree.Close()

	c := &converter{content: content}
	f := &File{Source: syntax.Source(content)}
	c.collectMethods(tree.RootNode(), nil, &f.Methods)
	assignSelectors(f.Methods)
	return f, nil
}

// assignSelectors gives overloaded methods a "Class.name(T1,T2)" selector. Two
// methods with the same signature, which only broken code has, are told apart by
// a "#n" ordinal.
func assignSelectors(methods []MethodInfo) {
	count := make(map[string]int, len(methods))
	for _, m := range methods {
		count[m.QualifiedName()]++
	}
	seen := make(map[string]int, len(methods))
	for i := range methods {
		m := &methods[i]
		m.Selector = m.QualifiedName()
		if count[m.Selector] > 1 {
			m.Selector += signature(m.Method)
		}
		seen[m.Selector]++
		if n := seen[m.Selector]; n > 1 {
			m.Selector += "#" + strconv.Itoa(n)
		}
	}
}

func signature(m *syntax.Method) string {
	types := make([]string, len(m.Params))
	for i, p := range m.Params {
		types[i] = strings.Join(strings.Fields(p.Type), "")
	}
	return "(" + strings.Join(types, ",") + ")"
}

// Method returns the method selected by name. An exact selector wins; otherwise
// the name may be bare or qualified as "Class.method" and the first match in
// source order is returned.
func (f *File) Method(name string) (*syntax.Method, error) {
	m, ok := f.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMethodNotFound, name)
	}
	if m.HasError {
		return nil, fmt.Errorf("method %q (line %d): %w", name, m.Line, ErrSyntax)
	}
	return m.Method, nil
}

func (f *File) lookup(name string) (MethodInfo, bool) {
	for _, m := range f.Methods {
		if m.Selector == name {
			return m, true
		}
	}
	for _, m := range f.Methods {
		if m.Name == name || m.QualifiedName() == name {
			return m, true
		}
	}
	return MethodInfo{}, false
}

// Names returns the selectors of all methods in source order.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Methods))
	for _, m := range f.Methods {
		names = append(names, m.Selector)
	}
	return names
}

type converter struct {
	content []byte
}

func (c *converter) collectMethods(node *sitter.Node, classes []string, out *[]MethodInfo) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			classes = append(classes, c.text(name))
		}
	case "method_declaration", "constructor_declaration":
		if m := c.method(node); m != nil {
			*out = append(*out, MethodInfo{
				Class:    strings.Join(classes, "."),
				Name:     m.Name.Name,
				Line:     m.Start.Line,
				HasError: node.HasError(),
				Method:   m,
			})
		}
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		c.collectMethods(node.NamedChild(i), classes, out)
	}
}

func (c *converter) method(node *sitter.Node) *syntax.Method {
	nameNode := node.ChildByFieldName("name")
	bodyNode := node.ChildByFieldName("body")
	if nameNode == nil || bodyNode == nil {
		// abstract and interface methods have no body to analyze
		return nil
	}

	m := &syntax.Method{
		Range: c.rng(node),
		Name:  c.ident(nameNode),
		Body:  c.block(bodyNode),
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p.Type() != "formal_parameter" && p.Type() != "spread_parameter" {
				continue
			}
			if name := c.paramName(p); name != nil {
				typ := ""
				if t := p.ChildByFieldName("type"); t != nil {
					typ = c.text(t)
				}
				m.Params = append(m.Params, &syntax.Param{Range: c.rng(p), Type: typ, Name: name})
			}
		}
	}
	return m
}

func (c *converter) paramName(p *sitter.Node) *syntax.Ident {
	if name := p.ChildByFieldName("name"); name != nil {
		return c.ident(name)
	}
	// spread_parameter wraps a variable_declarator
	for i := 0; i < int(p.NamedChildCount()); i++ {
		child := p.NamedChild(i)
		if child.Type() == "variable_declarator" {
			if name := child.ChildByFieldName("name"); name != nil {
				return c.ident(name)
			}
		}
	}
	return nil
}

func (c *converter) block(node *sitter.Node) *syntax.Block {
	b := &syntax.Block{Range: c.rng(node)}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if st := c.stmt(node.NamedChild(i)); st != nil {
			b.Stmts = append(b.Stmts, st)
		}
	}
	return b
}

func (c *converter) stmt(node *sitter.Node) syntax.Stmt {
	if node == nil {
		return nil
	}

	switch node.Type() {
	case "line_comment", "block_comment", ";":
		return nil

	case "block", "constructor_body":
		return c.block(node)

	case "expression_statement":
		if node.NamedChildCount() == 0 {
			return nil
		}
		return &syntax.ExprStmt{Range: c.rng(node), X: c.expr(node.NamedChild(0))}

	case "local_variable_declaration":
		return c.varDecl(node)

	case "if_statement":
		st := &syntax.If{
			Range: c.rng(node),
			Cond:  c.cond(node.ChildByFieldName("condition")),
			Then:  c.stmt(node.ChildByFieldName("consequence")),
		}
		if alt := node.ChildByFieldName("alternative"); alt != nil {
			st.Else = c.stmt(alt)
		}
		if st.Then == nil {
			st.Then = &syntax.Block{Range: st.Range}
		}
		return st

	case "while_statement":
		return &syntax.While{
			Range: c.rng(node),
			Cond:  c.cond(node.ChildByFieldName("condition")),
			Body:  c.bodyOrEmpty(node),
		}

	case "for_statement":
		return c.forStmt(node)

	case "return_statement":
		st := &syntax.Return{Range: c.rng(node)}
		if node.NamedChildCount() > 0 {
			st.Result = c.expr(node.NamedChild(0))
		}
		return st

	case "break_statement":
		return &syntax.Break{Range: c.rng(node), Label: c.jumpLabel(node)}

	case "continue_statement":
		return &syntax.Continue{Range: c.rng(node), Label: c.jumpLabel(node)}

	case "labeled_statement":
		st := &syntax.Labeled{Range: c.rng(node)}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "identifier" && st.Label == "" {
				st.Label = c.text(child)
				continue
			}
			if st.Body == nil {
				st.Body = c.stmt(child)
			}
		}
		if st.Body == nil {
			st.Body = &syntax.Block{Range: st.Range}
		}
		return st

	default:
		return &syntax.OtherStmt{Range: c.rng(node), Kind: node.Type()}
	}
}

func (c *converter) bodyOrEmpty(node *sitter.Node) syntax.Stmt {
	if body := c.stmt(node.ChildByFieldName("body")); body != nil {
		return body
	}
	return &syntax.Block{Range: c.rng(node)}
}

func (c *converter) jumpLabel(node *sitter.Node) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == "identifier" {
			return c.text(child)
		}
	}
	return ""
}

// cond unwraps the parenthesized_expression tree-sitter uses for if/while conditions.
func (c *converter) cond(node *sitter.Node) syntax.Expr {
	if node == nil {
		return nil
	}
	if node.Type() == "parenthesized_expression" && node.NamedChildCount() == 1 {
		return c.expr(node.NamedChild(0))
	}
	return c.expr(node)
}

func (c *converter) varDecl(node *sitter.Node) *syntax.VarDecl {
	d := &syntax.VarDecl{Range: c.rng(node)}
	if t := node.ChildByFieldName("type"); t != nil {
		d.Type = c.text(t)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		decl := &syntax.Declarator{Range: c.rng(child)}
		if name := child.ChildByFieldName("name"); name != nil {
			decl.Name = c.ident(name)
		}
		if value := child.ChildByFieldName("value"); value != nil {
			decl.Init = c.expr(value)
		}
		if decl.Name != nil {
			d.Decls = append(d.Decls, decl)
		}
	}
	return d
}

func (c *converter) forStmt(node *sitter.Node) *syntax.For {
	st := &syntax.For{Range: c.rng(node)}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		switch node.FieldNameForChild(i) {
		case "init":
			if child.Type() == "local_variable_declaration" {
				st.Init = append(st.Init, c.varDecl(child))
			} else {
				st.Init = append(st.Init, &syntax.ExprStmt{Range: c.rng(child), X: c.expr(child)})
			}
		case "condition":
			st.Cond = c.expr(child)
		case "update":
			st.Update = append(st.Update, &syntax.ExprStmt{Range: c.rng(child), X: c.expr(child)})
		case "body":
			st.Body = c.stmt(child)
		}
	}
	if st.Body == nil {
		st.Body = &syntax.Block{Range: st.Range}
	}
	return st
}

func (c *converter) expr(node *sitter.Node) syntax.Expr {
	if node == nil {
		return nil
	}
	r := c.rng(node)

	switch node.Type() {
	case "identifier":
		return c.ident(node)

	case "parenthesized_expression":
		if node.NamedChildCount() == 0 {
			return &syntax.OtherExpr{Range: r, Kind: node.Type()}
		}
		return &syntax.Paren{Range: r, X: c.expr(node.NamedChild(0))}

	case "assignment_expression":
		return &syntax.Assign{
			Range:  r,
			Target: c.expr(node.ChildByFieldName("left")),
			Op:     c.operator(node),
			Value:  c.expr(node.ChildByFieldName("right")),
		}

	case "binary_expression":
		return &syntax.Binary{
			Range: r,
			X:     c.expr(node.ChildByFieldName("left")),
			Op:    c.operator(node),
			Y:     c.expr(node.ChildByFieldName("right")),
		}

	case "unary_expression":
		return &syntax.Unary{
			Range: r,
			Op:    c.operator(node),
			X:     c.expr(node.ChildByFieldName("operand")),
		}

	case "update_expression":
		u := &syntax.Unary{Range: r}
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			if child.IsNamed() {
				u.X = c.expr(child)
				u.Postfix = i == 0
			} else {
				u.Op = child.Type()
			}
		}
		return u

	case "method_invocation":
		call := &syntax.Call{Range: r}
		if obj := node.ChildByFieldName("object"); obj != nil {
			call.Recv = c.expr(obj)
		}
		if name := node.ChildByFieldName("name"); name != nil {
			call.Name = c.ident(name)
		}
		call.Args = c.args(node.ChildByFieldName("arguments"))
		return call

	case "object_creation_expression":
		obj := &syntax.NewObject{Range: r, Args: c.args(node.ChildByFieldName("arguments"))}
		if t := node.ChildByFieldName("type"); t != nil {
			obj.Type = c.text(t)
		}
		return obj

	case "field_access":
		fa := &syntax.FieldAccess{Range: r, X: c.expr(node.ChildByFieldName("object"))}
		if field := node.ChildByFieldName("field"); field != nil {
			fa.Field = c.ident(field)
		}
		return fa

	case "array_access":
		return &syntax.Index{
			Range: r,
			X:     c.expr(node.ChildByFieldName("array")),
			Index: c.expr(node.ChildByFieldName("index")),
		}

	case "array_creation_expression":
		arr := &syntax.NewArray{Range: r}
		if t := node.ChildByFieldName("type"); t != nil {
			arr.Type = c.text(t)
		}
		for i := 0; i < int(node.NamedChildCount()); i++ {
			child := node.NamedChild(i)
			if child.Type() == "dimensions_expr" && child.NamedChildCount() > 0 {
				arr.Dims = append(arr.Dims, c.expr(child.NamedChild(0)))
			}
		}
		return arr

	case "ternary_expression":
		return &syntax.Conditional{
			Range: r,
			Cond:  c.expr(node.ChildByFieldName("condition")),
			Then:  c.expr(node.ChildByFieldName("consequence")),
			Else:  c.expr(node.ChildByFieldName("alternative")),
		}

	case "cast_expression":
		cast := &syntax.Cast{Range: r, X: c.expr(node.ChildByFieldName("value"))}
		if t := node.ChildByFieldName("type"); t != nil {
			cast.Type = c.text(t)
		}
		return cast

	case "decimal_integer_literal", "hex_integer_literal", "octal_integer_literal", "binary_integer_literal",
		"decimal_floating_point_literal", "hex_floating_point_literal", "string_literal", "character_literal",
		"true", "false", "null_literal", "text_block":
		return &syntax.Literal{Range: r, Value: c.text(node)}

	default:
		return &syntax.OtherExpr{Range: r, Kind: node.Type()}
	}
}

func (c *converter) args(node *sitter.Node) []syntax.Expr {
	if node == nil {
		return nil
	}
	var args []syntax.Expr
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "line_comment" || child.Type() == "block_comment" {
			continue
		}
		args = append(args, c.expr(child))
	}
	return args
}

// operator returns the text of the "operator" field.
func (c *converter) operator(node *sitter.Node) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

func (c *converter) ident(node *sitter.Node) *syntax.Ident {
	return &syntax.Ident{Range: c.rng(node), Name: c.text(node)}
}

func (c *converter) rng(node *sitter.Node) syntax.Range {
	start, end := node.StartPoint(), node.EndPoint()
	return syntax.Range{
		Start: syntax.Pos{Line: int(start.Row) + 1, Column: int(start.Column) + 1, Offset: int(node.StartByte())},
		End:   syntax.Pos{Line: int(end.Row) + 1, Column: int(end.Column) + 1, Offset: int(node.EndByte())},
	}
}

func (c *converter) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start >= uint32(len(c.content)) || end > uint32(len(c.content)) {
		return ""
	}
	return string(c.content[start:end])
}
