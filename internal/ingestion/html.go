package ingestion

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToMarkdown converts an HTML page into the markdown dialect the
// document builder consumes: ATX headings, paragraph text, image
// references, list bullets, and pipe tables. Script, style, and chrome
// elements are dropped first.
func HTMLToMarkdown(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("nav, footer, header, script, style, noscript, .ad, .ads, .sidebar, .cookie-banner, .popup").Remove()

	root := doc.Find("main, article").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	var sb strings.Builder
	renderNode(&sb, root)
	return strings.TrimSpace(sb.String()), nil
}

func renderNode(sb *strings.Builder, sel *goquery.Selection) {
	sel.Children().Each(func(_ int, child *goquery.Selection) {
		tag := goquery.NodeName(child)
		switch tag {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			level := int(tag[1] - '0')
			fmt.Fprintf(sb, "%s %s\n\n", strings.Repeat("#", level), cleanText(child.Text()))
		case "p":
			if text := cleanText(child.Text()); text != "" {
				sb.WriteString(text)
				sb.WriteString("\n\n")
			}
			renderImages(sb, child)
		case "img":
			renderImage(sb, child)
		case "ul", "ol":
			child.Find("li").Each(func(_ int, li *goquery.Selection) {
				if text := cleanText(li.Text()); text != "" {
					fmt.Fprintf(sb, "- %s\n", text)
				}
			})
			sb.WriteString("\n")
		case "table":
			renderTable(sb, child)
		case "pre", "code":
			if text := strings.TrimSpace(child.Text()); text != "" {
				fmt.Fprintf(sb, "```\n%s\n```\n\n", text)
			}
		default:
			renderNode(sb, child)
		}
	})
}

func renderImages(sb *strings.Builder, sel *goquery.Selection) {
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		renderImage(sb, img)
	})
}

func renderImage(sb *strings.Builder, img *goquery.Selection) {
	src, ok := img.Attr("src")
	if !ok || src == "" || strings.HasPrefix(src, "data:") {
		return
	}
	alt := img.AttrOr("alt", "")
	fmt.Fprintf(sb, "![%s](%s)\n\n", cleanText(alt), src)
}

func renderTable(sb *strings.Builder, table *goquery.Selection) {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cleanText(cell.Text()))
		})
		if len(cells) > 0 {
			rows = append(rows, cells)
		}
	})
	if len(rows) == 0 {
		return
	}
	for i, row := range rows {
		fmt.Fprintf(sb, "| %s |\n", strings.Join(row, " | "))
		if i == 0 {
			sb.WriteString("|")
			sb.WriteString(strings.Repeat(" --- |", len(row)))
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")
}

func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
