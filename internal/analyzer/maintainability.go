package analyzer

import (
	"context"
	"math"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

const (
	// FailedMaintainability is reported when the source cannot be measured
	FailedMaintainability = 50.0
	// EmptyMaintainability is reported for blank source
	EmptyMaintainability = 0.0
)

// Node types that add a decision point to cyclomatic complexity
var decisionNodes = map[string]bool{
	"if_statement":           true,
	"elif_clause":            true,
	"for_statement":          true,
	"while_statement":        true,
	"except_clause":          true,
	"conditional_expression": true,
	"boolean_operator":       true,
	"for_in_clause":          true,
	"if_clause":              true,
	"assert_statement":       true,
	"case_clause":            true,
	"function_definition":    true,
}

// Node types whose unnamed children are Halstead operators and named children operands
var halsteadNodes = map[string]bool{
	"binary_operator":      true,
	"unary_operator":       true,
	"boolean_operator":     true,
	"comparison_operator":  true,
	"augmented_assignment": true,
	"not_operator":         true,
}

// codeMeasures are the raw inputs of the maintainability index
type codeMeasures struct {
	operators    map[string]int
	operands     map[string]int
	complexity   int
	logicalLines int
	sourceLines  int
	commentLines int
}

func (m codeMeasures) volume() float64 {
	n1, n2 := 0, 0
	for _, c := range m.operators {
		n1 += c
	}
	for _, c := range m.operands {
		n2 += c
	}
	vocabulary := len(m.operators) + len(m.operands)
	if vocabulary == 0 {
		return 0
	}
	return float64(n1+n2) * math.Log2(float64(vocabulary))
}

func (m codeMeasures) commentPercent() float64 {
	if m.sourceLines == 0 {
		return 0
	}
	return float64(m.commentLines) / float64(m.sourceLines) * 100
}

// MaintainabilityIndex computes the radon maintainability index (0..100) of Python source.
// Blank source scores 0 and source that does not parse scores 50.
// parses is the verdict of Parses so both metrics agree.
func MaintainabilityIndex(ctx context.Context, code string, parses bool) float64 {
	if strings.TrimSpace(code) == "" {
		return EmptyMaintainability
	}
	if !parses {
		return FailedMaintainability
	}

	src := []byte(code)
	tree, err := parsePython(ctx, src)
	if err != nil {
		return FailedMaintainability
	}
	defer tree.Close()

	m := measure(tree.RootNode(), src)
	return maintainability(m.volume(), float64(m.complexity), float64(m.logicalLines), m.commentPercent())
}

// maintainability is radon's mi_compute
func maintainability(volume, complexity, lloc, commentPercent float64) float64 {
	if volume <= 0 || lloc <= 0 {
		return 100
	}
	commentScale := math.Sqrt(2.46 * commentPercent * math.Pi / 180)
	raw := 171 - 5.2*math.Log(volume) - 0.23*complexity - 16.2*math.Log(lloc) + 50*math.Sin(commentScale)
	return math.Min(math.Max(0, raw*100/171), 100)
}

func measure(root *sitter.Node, src []byte) codeMeasures {
	m := codeMeasures{
		operators:  make(map[string]int),
		operands:   make(map[string]int),
		complexity: 1,
	}

	commentRows := make(map[uint32]bool)
	docRows := make(map[uint32]bool)
	walk(root, func(n *sitter.Node) {
		typ := n.Type()

		if decisionNodes[typ] {
			m.complexity++
		}
		if isLogicalLine(typ) {
			m.logicalLines++
		}
		if halsteadNodes[typ] {
			for i := 0; i < int(n.ChildCount()); i++ {
				child := n.Child(i)
				if child.IsNamed() {
					m.operands[child.Content(src)]++
				} else {
					m.operators[child.Type()]++
				}
			}
		}

		switch {
		case typ == "comment":
			commentRows[n.StartPoint().Row] = true
		case typ == "expression_statement" && isDocstring(n):
			for row := n.StartPoint().Row; row <= n.EndPoint().Row; row++ {
				docRows[row] = true
			}
		}
	})

	// Inline comments count as comment lines but keep their source line.
	for i, line := range strings.Split(string(src), "\n") {
		row := uint32(i)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if commentRows[row] || docRows[row] {
			m.commentLines++
		}
		if docRows[row] || strings.HasPrefix(trimmed, "#") {
			continue
		}
		m.sourceLines++
	}
	return m
}

func isLogicalLine(typ string) bool {
	switch typ {
	case "for_in_clause", "if_clause", "with_clause":
		return false
	}
	return strings.HasSuffix(typ, "_statement") ||
		strings.HasSuffix(typ, "_definition") ||
		strings.HasSuffix(typ, "_clause")
}

func isDocstring(n *sitter.Node) bool {
	return n.NamedChildCount() == 1 && n.NamedChild(0).Type() == "string"
}

func walk(n *sitter.Node, visit func(*sitter.Node)) {
	if n == nil {
		return
	}
	visit(n)
	for i := 0; i < int(n.ChildCount()); i++ {
		walk(n.Child(i), visit)
	}
}
