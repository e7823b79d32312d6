package extract

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Extractor is the file-backed text extractor used by request handlers.
type Extractor struct{}

// ExtractFile implements the handler's extractor contract.
func (Extractor) ExtractFile(ctx context.Context, fileName, filePath string) (string, error) {
	return ExtractFile(ctx, fileName, filePath)
}

// ExtractFile returns the plain text of the file at filePath, choosing the
// decoder from fileName's extension. Unsupported extensions fail with
// *UnsupportedFormatError before the file is opened.
func ExtractFile(ctx context.Context, fileName, filePath string) (string, error) {
	format, ext := DetectFormat(fileName)
	if format == FormatUnsupported {
		return "", &UnsupportedFormatError{Ext: ext}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("extract %s: read: %w", format, err)
	}
	return decode(ctx, format, data)
}

// ExtractBytes extracts text from an in-memory payload named fileName.
func ExtractBytes(ctx context.Context, data []byte, fileName string) (string, error) {
	format, ext := DetectFormat(fileName)
	if format == FormatUnsupported {
		return "", &UnsupportedFormatError{Ext: ext}
	}
	return decode(ctx, format, data)
}

func decode(ctx context.Context, format Format, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var (
		text string
		err  error
	)
	switch format {
	case FormatPlainText:
		text = strings.ToValidUTF8(string(data), "�")
	case FormatPDF:
		text, err = extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	default:
		return "", &UnsupportedFormatError{}
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	fonts := make(map[string]*pdf.Font)
	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if buf.Len() > 0 && text != "" && !strings.HasSuffix(buf.String(), "\n") {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return stripDocxXML(doc.Editable().GetContent())
}

// stripDocxXML keeps character data only. Paragraph ends and explicit breaks
// become newlines and run-level tabs become \t; tab stop definitions are skipped.
func stripDocxXML(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	inTabStops := 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "tabs":
				inTabStops++
			case "tab":
				if inTabStops == 0 {
					buf.WriteByte('\t')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tabs":
				inTabStops--
			case "p", "br":
				if buf.Len() > 0 {
					buf.WriteByte('\n')
				}
			}
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
