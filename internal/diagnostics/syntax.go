package diagnostics

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
)

// Error text at most this long is quoted verbatim in the message.
const maxQuotedErrorText = 50

// Collector runs the syntax pass over a tree.
type Collector struct {
	logger *zap.Logger
}

// NewCollector creates a syntax diagnostic collector.
func NewCollector(logger *zap.Logger) *Collector {
	return &Collector{logger: logger.With(zap.String("component", "diagnostic-collector"))}
}

// Syntax collects one diagnostic per significant ERROR node. ERROR
// nodes whose trimmed text is a single character or less are grammar
// noise and skipped. When the tree carries errors but every ERROR node
// was skipped, a single whole-document diagnostic is emitted.
func (c *Collector) Syntax(root *cst.Node, source string) []Diagnostic {
	if root == nil {
		return nil
	}

	var diags []Diagnostic
	sawError := false
	cst.Walk(root, func(n *cst.Node) bool {
		if !n.IsError() {
			return true
		}
		sawError = true
		if len(strings.TrimSpace(n.Text(source))) <= 1 {
			return true
		}
		diags = append(diags, Diagnostic{
			Message:   c.errorMessage(n, source),
			Severity:  SeverityError,
			Code:      CodeSyntax,
			StartByte: n.StartByte(),
			EndByte:   n.EndByte(),
		})
		return false
	})

	if len(diags) == 0 && sawError {
		c.logger.Debug("Tree has errors but every ERROR node was noise, falling back to a whole-document diagnostic")
		diags = append(diags, Diagnostic{
			Message:   "Syntax error in SQL statement",
			Severity:  SeverityError,
			Code:      CodeSyntax,
			StartByte: 0,
			EndByte:   len(source),
		})
	}
	return diags
}

// errorMessage inspects the ERROR node's surroundings and picks the
// most specific message it can justify.
func (c *Collector) errorMessage(node *cst.Node, source string) string {
	if first, ok := adjacentIdentifiers(node, source); ok {
		return fmt.Sprintf("missing comma between identifiers; add comma after '%s'", first)
	}
	if sel := cst.AncestorOfKind(node, cst.KindSelectStatement); sel != nil {
		if sel.FirstChildOfKind(cst.KindFromClause) == nil {
			return "SELECT statement missing FROM clause"
		}
	}

	text := node.Text(source)
	if strings.Count(text, "(") != strings.Count(text, ")") {
		return "unbalanced parentheses"
	}
	if len(text) <= maxQuotedErrorText {
		return fmt.Sprintf("Syntax error near '%s'", text)
	}
	return "Syntax error in this region"
}

// adjacentIdentifiers reports two identifier children separated only
// by whitespace, the classic forgotten comma.
func adjacentIdentifiers(node *cst.Node, source string) (string, bool) {
	var prev *cst.Node
	for _, child := range node.Children() {
		if child.Kind() != cst.KindIdentifier && child.Kind() != cst.KindColumnName {
			prev = nil
			continue
		}
		if prev != nil {
			between := source[prev.EndByte():child.StartByte()]
			if between != "" && strings.TrimSpace(between) == "" {
				return prev.Text(source), true
			}
		}
		prev = child
	}
	return "", false
}
