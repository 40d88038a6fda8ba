// Package template turns the markdown writeup template into the Notion block
// list attached to every newly created machine page.
package template

import (
	_ "embed"
	"errors"
	"strings"

	"github.com/wesm/htb-notion-sync/internal/api"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// maxRichTextLength is the longest content Notion accepts in one text run
const maxRichTextLength = 2000

// defaultLanguage is used for code blocks without an info string
const defaultLanguage = "plain text"

//go:embed writeup.md
var defaultTemplate []byte

// ErrEmptyTemplate is returned when a template produces no blocks
var ErrEmptyTemplate = errors.New("writeup template is empty")

// Load parses custom, or the built-in template when custom is nil
func Load(custom []byte) ([]api.Block, error) {
	if custom == nil {
		custom = defaultTemplate
	}
	return Parse(custom)
}

// Parse converts markdown into Notion blocks. Headings deeper than level 3
// become level 3 headings; nested lists are flattened.
func Parse(src []byte) ([]api.Block, error) {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var blocks []api.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, convertNode(n, src)...)
	}

	if len(blocks) == 0 {
		return nil, ErrEmptyTemplate
	}
	return blocks, nil
}

func convertNode(n ast.Node, src []byte) []api.Block {
	switch n := n.(type) {
	case *ast.Heading:
		return []api.Block{heading(n.Level, inlineText(n, src))}

	case *ast.Paragraph, *ast.TextBlock:
		return []api.Block{textBlock("paragraph", inlineText(n, src))}

	case *ast.List:
		kind := "bulleted_list_item"
		if n.IsOrdered() {
			kind = "numbered_list_item"
		}

		var blocks []api.Block
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			var parts []string
			var nested []api.Block
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				if _, ok := c.(*ast.List); ok {
					nested = append(nested, convertNode(c, src)...)
					continue
				}
				parts = append(parts, inlineText(c, src))
			}
			blocks = append(blocks, textBlock(kind, strings.Join(parts, "\n")))
			blocks = append(blocks, nested...)
		}
		return blocks

	case *ast.FencedCodeBlock:
		lang := string(n.Language(src))
		if lang == "" {
			lang = defaultLanguage
		}
		return []api.Block{codeBlock(lang, lines(n, src))}

	case *ast.CodeBlock:
		return []api.Block{codeBlock(defaultLanguage, lines(n, src))}

	case *ast.ThematicBreak:
		return []api.Block{{Object: "block", Type: "divider", Divider: &api.EmptyBlock{}}}

	case *ast.Blockquote:
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			parts = append(parts, inlineText(c, src))
		}
		return []api.Block{textBlock("quote", strings.Join(parts, "\n"))}

	default:
		content := strings.TrimSpace(lines(n, src))
		if content == "" {
			return nil
		}
		return []api.Block{textBlock("paragraph", content)}
	}
}

// inlineText collects the plain text of n's inline descendants
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Value(src))
			if c.HardLineBreak() {
				b.WriteByte('\n')
			} else if c.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.URL(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// lines returns the raw source lines of a block node
func lines(n ast.Node, src []byte) string {
	var b strings.Builder
	segs := n.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(src))
	}
	return strings.TrimRight(b.String(), "\n")
}

func heading(level int, content string) api.Block {
	switch {
	case level <= 1:
		return api.Block{Object: "block", Type: "heading_1", Heading1: &api.TextBlock{RichText: richText(content)}}
	case level == 2:
		return api.Block{Object: "block", Type: "heading_2", Heading2: &api.TextBlock{RichText: richText(content)}}
	default:
		return api.Block{Object: "block", Type: "heading_3", Heading3: &api.TextBlock{RichText: richText(content)}}
	}
}

func textBlock(kind, content string) api.Block {
	body := &api.TextBlock{RichText: richText(content)}
	block := api.Block{Object: "block", Type: kind}

	switch kind {
	case "bulleted_list_item":
		block.BulletedListItem = body
	case "numbered_list_item":
		block.NumberedListItem = body
	case "quote":
		block.Quote = body
	default:
		block.Type = "paragraph"
		block.Paragraph = body
	}
	return block
}

func codeBlock(lang, content string) api.Block {
	return api.Block{
		Object: "block",
		Type:   "code",
		Code:   &api.CodeBlock{RichText: richText(content), Language: lang},
	}
}

// richText splits content into runs no longer than maxRichTextLength runes
func richText(content string) []api.RichText {
	runs := []api.RichText{}
	runes := []rune(content)
	for len(runes) > 0 {
		n := min(len(runes), maxRichTextLength)
		runs = append(runs, api.Text(string(runes[:n])))
		runes = runes[n:]
	}
	return runs
}
