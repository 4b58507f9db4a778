package lsp

import (
	"go.lsp.dev/protocol"

	"github.com/woxQAQ/unified-sql-lsp/internal/completion"
	"github.com/woxQAQ/unified-sql-lsp/internal/cst"
	"github.com/woxQAQ/unified-sql-lsp/internal/diagnostics"
	"github.com/woxQAQ/unified-sql-lsp/internal/parser"
	"github.com/woxQAQ/unified-sql-lsp/internal/symbols"
)

func fromProtocolPosition(pos protocol.Position) cst.Position {
	return cst.Position{
		Line:      int(pos.Line),
		Character: int(pos.Character),
	}
}

func toProtocolPosition(pos cst.Position) protocol.Position {
	return protocol.Position{
		Line:      uint32(pos.Line),
		Character: uint32(pos.Character),
	}
}

// byteSpanToRange converts a [start, end) byte span into a protocol
// range using the document text for line and rune accounting.
func byteSpanToRange(text string, start, end int) protocol.Range {
	return protocol.Range{
		Start: toProtocolPosition(cst.ByteToPosition(text, start)),
		End:   toProtocolPosition(cst.ByteToPosition(text, end)),
	}
}

// toParserChange converts one content change event. The wire type
// cannot distinguish a full-document replacement from an edit whose
// range is exactly the document start, so a zero range is read as a
// full replacement.
func toParserChange(ch protocol.TextDocumentContentChangeEvent) parser.Change {
	if ch.Range == (protocol.Range{}) && ch.RangeLength == 0 {
		return parser.Change{Text: ch.Text}
	}
	r := cst.Range{
		Start: fromProtocolPosition(ch.Range.Start),
		End:   fromProtocolPosition(ch.Range.End),
	}
	return parser.Change{Range: &r, Text: ch.Text}
}

func toProtocolCompletionItems(items []completion.Item) []protocol.CompletionItem {
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, item := range items {
		ci := protocol.CompletionItem{
			Label:      item.Label,
			Kind:       completionKind(item.Kind),
			Detail:     item.Detail,
			SortText:   item.SortText,
			FilterText: item.FilterText,
			InsertText: item.InsertText,
		}
		if item.Documentation != "" {
			ci.Documentation = &protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: item.Documentation,
			}
		}
		out = append(out, ci)
	}
	return out
}

func completionKind(kind completion.ItemKind) protocol.CompletionItemKind {
	switch kind {
	case completion.ItemField:
		return protocol.CompletionItemKindField
	case completion.ItemClass:
		return protocol.CompletionItemKindClass
	case completion.ItemFunction:
		return protocol.CompletionItemKindFunction
	case completion.ItemKeyword:
		return protocol.CompletionItemKindKeyword
	default:
		return protocol.CompletionItemKindText
	}
}

func toProtocolSymbol(sym symbols.Symbol, text string) protocol.DocumentSymbol {
	out := protocol.DocumentSymbol{
		Name:           sym.Name,
		Detail:         sym.Detail,
		Kind:           symbolKind(sym.Kind),
		Range:          byteSpanToRange(text, sym.StartByte, sym.EndByte),
		SelectionRange: byteSpanToRange(text, sym.SelectionStart, sym.SelectionEnd),
	}
	for _, child := range sym.Children {
		out.Children = append(out.Children, toProtocolSymbol(child, text))
	}
	return out
}

func symbolKind(kind symbols.Kind) protocol.SymbolKind {
	switch kind {
	case symbols.KindQuery:
		return protocol.SymbolKindNamespace
	case symbols.KindTable:
		return protocol.SymbolKindClass
	case symbols.KindColumn:
		return protocol.SymbolKindField
	default:
		return protocol.SymbolKindObject
	}
}

func toProtocolDiagnostic(d diagnostics.Diagnostic, text string) protocol.Diagnostic {
	return protocol.Diagnostic{
		Range:    byteSpanToRange(text, d.StartByte, d.EndByte),
		Severity: protocol.DiagnosticSeverity(d.Severity),
		Code:     string(d.Code),
		Source:   diagnostics.Source,
		Message:  d.Message,
	}
}
