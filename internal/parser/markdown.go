package parser

import (
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gtext "github.com/yuin/goldmark/text"
)

// extractMarkdown parses a markdown file and flattens it to plain text.
// Block boundaries become blank lines so the paragraph chunker sees the
// same structure a reader would.
func extractMarkdown(filePath string) (*Extraction, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	root := md.Parser().Parse(gtext.NewReader(data))

	var b strings.Builder
	err = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.ListItem, *ast.Blockquote:
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
		case *ast.Text:
			b.Write(node.Segment.Value(data))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.FencedCodeBlock:
			if b.Len() > 0 {
				b.WriteString("\n\n")
			}
			for i := 0; i < node.Lines().Len(); i++ {
				line := node.Lines().At(i)
				b.Write(line.Value(data))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	return newExtraction([]string{b.String()}, nil), nil
}
