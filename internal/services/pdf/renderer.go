package pdf

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
)

// renderer walks a goldmark AST and draws it with fpdf core fonts.
// Text is translated from UTF-8 to the cp1252 encoding those fonts use.
type renderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string

	bold      bool
	italic    bool
	mono      bool
	size      float64
	quoteLvl  int
	listStack []listState
}

type listState struct {
	ordered bool
	next    int
}

func (r *renderer) render(root ast.Node) error {
	r.size = baseFontSize
	return ast.Walk(root, r.walk)
}

func (r *renderer) applyFont() {
	family := baseFont
	if r.mono {
		family = "Courier"
	}
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(family, style, r.size)
}

func (r *renderer) write(s string) {
	r.pdf.Write(lineHeight, r.translate(s))
}

func (r *renderer) indent() float64 {
	left, _, _, _ := r.pdf.GetMargins()
	return left + float64(len(r.listStack))*5 + float64(r.quoteLvl)*6
}

func (r *renderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			r.pdf.Ln(3)
			r.size = map[int]float64{1: 16, 2: 14, 3: 12}[node.Level]
			if r.size == 0 {
				r.size = 11
			}
			r.bold = true
		} else {
			r.bold = false
			r.size = baseFontSize
			r.pdf.Ln(lineHeight + 2)
		}
		r.applyFont()

	case *ast.Paragraph:
		if entering {
			r.pdf.SetX(r.indent())
		} else if _, inItem := node.Parent().(*ast.ListItem); !inItem {
			r.pdf.Ln(lineHeight + 2)
		}

	case *ast.TextBlock:
		// tight list items hold text blocks rather than paragraphs

	case *ast.Text:
		if entering {
			r.write(string(node.Segment.Value(r.source)))
			switch {
			case node.HardLineBreak():
				r.pdf.Ln(lineHeight)
				r.pdf.SetX(r.indent())
			case node.SoftLineBreak():
				r.write(" ")
			}
		}

	case *ast.String:
		if entering {
			r.write(string(node.Value))
		}

	case *ast.Emphasis:
		if node.Level >= 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.applyFont()

	case *extast.Strikethrough:
		// rendered as plain text

	case *ast.CodeSpan:
		if entering {
			r.mono = true
			r.applyFont()
			r.write(string(node.Text(r.source)))
			r.mono = false
			r.applyFont()
		}
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			r.codeBlock(n)
		}
		return ast.WalkSkipChildren, nil

	case *ast.Blockquote:
		if entering {
			r.quoteLvl++
			r.italic = true
		} else {
			r.quoteLvl--
			r.italic = r.quoteLvl > 0
		}
		r.applyFont()

	case *ast.List:
		if entering {
			r.listStack = append(r.listStack, listState{ordered: node.IsOrdered(), next: node.Start})
		} else {
			r.listStack = r.listStack[:len(r.listStack)-1]
			if len(r.listStack) == 0 {
				r.pdf.Ln(2)
			}
		}

	case *ast.ListItem:
		if entering {
			r.listItemMarker()
		} else {
			r.pdf.Ln(lineHeight)
		}

	case *ast.Link, *ast.AutoLink:
		// link text is drawn by the child text nodes

	case *ast.ThematicBreak:
		if entering {
			left, _, right, _ := r.pdf.GetMargins()
			w, _ := r.pdf.GetPageSize()
			r.pdf.Ln(2)
			r.pdf.Line(left, r.pdf.GetY(), w-right, r.pdf.GetY())
			r.pdf.Ln(3)
		}

	case *extast.Table:
		if entering {
			r.table(node)
		}
		return ast.WalkSkipChildren, nil
	}

	return ast.WalkContinue, nil
}

func (r *renderer) listItemMarker() {
	top := &r.listStack[len(r.listStack)-1]
	marker := "-"
	if top.ordered {
		if top.next == 0 {
			top.next = 1
		}
		marker = fmt.Sprintf("%d.", top.next)
		top.next++
	}
	r.pdf.SetX(r.indent() - 4)
	r.write(marker + " ")
}

func (r *renderer) codeBlock(n ast.Node) {
	r.pdf.Ln(1)
	r.pdf.SetFont("Courier", "", 9)
	r.pdf.SetFillColor(243, 243, 243)

	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := strings.TrimRight(string(seg.Value(r.source)), "\n")
		r.pdf.SetX(r.indent())
		r.pdf.MultiCell(0, 4.5, r.translate(line), "", "L", true)
	}

	r.pdf.SetFillColor(255, 255, 255)
	r.applyFont()
	r.pdf.Ln(2)
}

// table draws equal-width columns; cells that do not fit are truncated with an ellipsis
func (r *renderer) table(n *extast.Table) {
	var rows [][]string
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		var cells []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(string(cell.Text(r.source))))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	left, _, right, _ := r.pdf.GetMargins()
	pageW, _ := r.pdf.GetPageSize()
	colW := (pageW - left - right) / float64(len(rows[0]))

	r.pdf.Ln(1)
	for i, row := range rows {
		style := ""
		fill := false
		if i == 0 {
			style = "B"
			fill = true
			r.pdf.SetFillColor(230, 230, 230)
		}
		r.pdf.SetFont(baseFont, style, 9)
		r.pdf.SetX(left)
		for j := range rows[0] {
			cell := ""
			if j < len(row) {
				cell = r.fit(r.translate(row[j]), colW-2)
			}
			r.pdf.CellFormat(colW, 6, cell, "1", 0, "L", fill, 0, "")
		}
		r.pdf.Ln(-1)
	}

	r.pdf.SetFillColor(255, 255, 255)
	r.applyFont()
	r.pdf.Ln(3)
}

func (r *renderer) fit(s string, width float64) string {
	if r.pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && r.pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}
