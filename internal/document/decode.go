package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for files that cannot be decoded to text
var ErrUnsupportedFormat = errors.New("unsupported document format")

// UploadExtensions are the extensions accepted for import
var UploadExtensions = []string{".pdf", ".docx", ".doc"}

// AllowedUpload reports whether filename has an accepted import extension
func AllowedUpload(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range UploadExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// TextFromFile decodes the file at path to plain text. The format is taken
// from originalName's extension since stored uploads are renamed.
func TextFromFile(path, originalName string) (string, error) {
	switch strings.ToLower(filepath.Ext(originalName)) {
	case ".pdf":
		return pdfText(path)
	case ".docx":
		return docxText(path)
	case ".doc":
		return "", fmt.Errorf("%w: legacy .doc files must be saved as .docx", ErrUnsupportedFormat)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(originalName))
	}
}

func pdfText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages the library cannot read
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func docxText(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer archive.Close()

	for _, f := range archive.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("read docx body: %w", err)
		}
		defer rc.Close()
		return wordMLText(rc)
	}
	return "", fmt.Errorf("%w: docx has no word/document.xml", ErrUnsupportedFormat)
}

// wordMLText collects the text runs of a WordprocessingML body. Paragraphs
// and breaks become newlines and tabs become spaces.
func wordMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString(" ")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
