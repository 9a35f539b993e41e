package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// The OOXML formats are zip archives of XML parts. Visible text lives in
// "t" elements: w:t in word/document.xml, a:t in slide parts, plain t in
// the spreadsheet shared-string table.

func extractDocx(path string) (string, error) {
	return collectArchiveText(path, func(name string) bool {
		return name == "word/document.xml"
	})
}

func extractXlsx(path string) (string, error) {
	return collectArchiveText(path, func(name string) bool {
		return name == "xl/sharedStrings.xml" ||
			(strings.HasPrefix(name, "xl/worksheets/sheet") && strings.HasSuffix(name, ".xml"))
	})
}

func extractPptx(path string) (string, error) {
	return collectArchiveText(path, func(name string) bool {
		return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
	})
}

// collectArchiveText opens the zip at path and concatenates the text runs
// of every part selected by match, in part-name order.
func collectArchiveText(path string, match func(string) bool) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer archive.Close()

	var parts []*zip.File
	for _, f := range archive.File {
		if match(f.Name) {
			parts = append(parts, f)
		}
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Name < parts[j].Name })

	var sb strings.Builder
	for _, part := range parts {
		rc, err := part.Open()
		if err != nil {
			continue
		}
		text, err := textRuns(rc)
		rc.Close()
		if err != nil {
			continue
		}
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// textRuns streams an XML part and returns the character data of every
// element whose local name is "t", space-joined.
func textRuns(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	depth := 0 // nesting depth inside a "t" element

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" || depth > 0 {
				depth++
			}
		case xml.EndElement:
			if depth > 0 {
				depth--
			}
		case xml.CharData:
			if depth > 0 {
				text := strings.TrimSpace(string(t))
				if text != "" {
					if sb.Len() > 0 {
						sb.WriteString(" ")
					}
					sb.WriteString(text)
				}
			}
		}
	}
	return sb.String(), nil
}
