package tree

import (
	"fmt"
)

type (
	// Kind tells how an element ended up in the output.
	Kind int

	// Element is one compiled unit of the output: a module body, a script
	// body, or a synthesized statement.
	Element struct {
		Kind   Kind
		Name   string
		Source []byte
	}

	// Tree is an ordered list of elements ready to be rendered into one
	// output text. Elements appear in exactly the order they were appended.
	Tree struct {
		Elements []Element
	}
)

const (
	Script Kind = iota
	Module
	Evaluation
)

func (t *Tree) Append(e Element) {
	t.Elements = append(t.Elements, e)
}

// Render appends the concatenated source of all elements to b in order.
func (t *Tree) Render(b []byte) []byte {
	for _, e := range t.Elements {
		b = append(b, e.Source...)

		if len(e.Source) != 0 && e.Source[len(e.Source)-1] != '\n' {
			b = append(b, '\n')
		}
	}

	return b
}

// SourceNames lists names of source-backed elements, synthesized ones skipped.
func (t *Tree) SourceNames() []string {
	var names []string

	for _, e := range t.Elements {
		if e.Kind == Evaluation {
			continue
		}

		names = append(names, e.Name)
	}

	return names
}

// ModuleEvaluation synthesizes a statement evaluating an already registered
// module by its canonical name.
func ModuleEvaluation(name string) Element {
	return Element{
		Kind:   Evaluation,
		Name:   name,
		Source: fmt.Appendf(nil, "System.get(%q);\n", name),
	}
}

func (k Kind) String() string {
	switch k {
	case Script:
		return "script"
	case Module:
		return "module"
	case Evaluation:
		return "evaluation"
	default:
		return fmt.Sprintf("kind[%d]", int(k))
	}
}
