package extract

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// readHTML returns the visible body text of an HTML document.
func readHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, template, nav, header, footer, aside").Remove()

	var blocks []string
	doc.Find("title, h1, h2, h3, h4, h5, h6, p, li, blockquote, pre, td").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Filter("p, li, blockquote, pre").Length() > 0 {
			return
		}
		if text := collapseSpace(s.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	if len(blocks) == 0 {
		return collapseSpace(doc.Find("body").Text()), nil
	}
	return strings.Join(blocks, "\n"), nil
}

func collapseSpace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
