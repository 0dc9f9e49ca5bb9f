package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br[^>]*/>|<w:tab[^>]*/>`)
	docxText         = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)
)

const minLegacyRun = 4

func readDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}
	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", err
		}
		defer rc.Close()
		xmlData, err := io.ReadAll(rc)
		if err != nil {
			return "", err
		}
		return docxBodyText(string(xmlData)), nil
	}
	return "", errors.New("word/document.xml not found in docx")
}

// docxBodyText keeps the text runs of each paragraph, one paragraph per line.
func docxBodyText(xml string) string {
	var lines []string
	for _, para := range docxParagraphEnd.Split(xml, -1) {
		var b strings.Builder
		for _, match := range docxText.FindAllStringSubmatch(para, -1) {
			b.WriteString(html.UnescapeString(match[1]))
		}
		if line := strings.TrimSpace(b.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// readLegacyDOC recovers readable runs from a binary Word 97-2003 file. Formatting and
// embedded objects are lost; it is a best-effort scan rather than a format parser.
func readLegacyDOC(data []byte) string {
	var (
		runs []string
		run  strings.Builder
	)
	flush := func() {
		if text := strings.TrimSpace(run.String()); utf8.RuneCountInString(text) >= minLegacyRun && hasLetters(text) {
			runs = append(runs, text)
		}
		run.Reset()
	}
	for _, c := range data {
		switch {
		case c == '\r' || c == '\n':
			flush()
		case c >= 0x20 && c < 0x7f:
			run.WriteByte(c)
		default:
			flush()
		}
	}
	flush()
	return strings.Join(runs, "\n")
}

func hasLetters(text string) bool {
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters*2 >= utf8.RuneCountInString(text)
}
