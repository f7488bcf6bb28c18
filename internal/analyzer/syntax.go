package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

var errUnparsable = errors.New("source could not be parsed")

// exitInvalidSyntax is the status the parse script exits with when CPython rejects the source
const exitInvalidSyntax = 3

// pythonParseScript reads raw bytes so encoding cookies and BOMs are honoured
var pythonParseScript = fmt.Sprintf(`import ast, sys
try:
    ast.parse(sys.stdin.buffer.read())
except (SyntaxError, ValueError, RecursionError, MemoryError):
    sys.exit(%d)
`, exitInvalidSyntax)

// SyntaxChecker decides whether Python source compiles
type SyntaxChecker interface {
	Parses(ctx context.Context, code string) (bool, error)
}

// CPythonChecker asks the interpreter's own parser, reading the source from stdin
type CPythonChecker struct {
	python  string
	timeout time.Duration
}

// NewCPythonChecker creates a checker using the given interpreter (default python3)
func NewCPythonChecker(python string) *CPythonChecker {
	if python == "" {
		python = "python3"
	}
	return &CPythonChecker{python: python, timeout: 10 * time.Second}
}

func (c *CPythonChecker) Parses(ctx context.Context, code string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.python, "-c", pythonParseScript)
	cmd.Stdin = strings.NewReader(code)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == exitInvalidSyntax && ctx.Err() == nil {
		return false, nil
	}
	return false, fmt.Errorf("python syntax check: %w: %s", err, strings.TrimSpace(stderr.String()))
}

// parsePython parses src with a fresh parser. Parsers are not safe for
// concurrent use, so one is created per call. The caller must close the tree.
func parsePython(ctx context.Context, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, errUnparsable
	}
	return tree, nil
}

// Parses reports whether code is valid Python. The checker's verdict wins;
// a nil or failing checker falls back to the tree-sitter grammar.
func Parses(ctx context.Context, checker SyntaxChecker, code string) bool {
	if checker != nil {
		ok, err := checker.Parses(ctx, code)
		if err == nil {
			return ok
		}
		slog.Debug("syntax checker unavailable, using tree-sitter", "error", err)
	}
	return treeSitterParses(ctx, code)
}

// SyntaxErrors reports 1 if the source has any syntax defect and 0 otherwise.
// Multiple defects still count as one.
func SyntaxErrors(ctx context.Context, checker SyntaxChecker, code string) int {
	if Parses(ctx, checker, code) {
		return 0
	}
	return 1
}

func treeSitterParses(ctx context.Context, code string) bool {
	tree, err := parsePython(ctx, []byte(code))
	if err != nil {
		return false
	}
	defer tree.Close()
	return !hasSyntaxError(tree.RootNode())
}

func hasSyntaxError(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	if n.IsError() || n.IsMissing() || n.HasError() {
		return true
	}
	return false
}
