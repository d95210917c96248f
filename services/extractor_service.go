package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var (
	// ErrUnsupportedFileType is returned for uploads that are not text, PDF,
	// DOCX or XLSX.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrEmptyDocument is returned when a file parses but contains no text.
	ErrEmptyDocument = errors.New("no text could be extracted from the document")
)

// SupportedExtensions lists the upload formats ExtractText understands.
var SupportedExtensions = []string{".md", ".txt", ".pdf", ".docx", ".xlsx"}

// TextExtractor turns uploaded files into knowledge document text.
type TextExtractor struct {
	unidocLicensed bool
	logger         *zap.Logger
}

// NewTextExtractor uses UniPDF for PDFs when a license key is given and falls
// back to ledongthuc/pdf otherwise.
func NewTextExtractor(unidocLicenseKey string, logger *zap.Logger) *TextExtractor {
	e := &TextExtractor{logger: logger}
	if unidocLicenseKey != "" {
		if err := license.SetMeteredKey(unidocLicenseKey); err != nil {
			logger.Warn("Failed to set Unidoc license key, using fallback PDF reader", zap.Error(err))
		} else {
			e.unidocLicensed = true
		}
	}
	return e
}

// ExtractText returns the text content of an uploaded file. The format is
// chosen by the file extension.
func (e *TextExtractor) ExtractText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	var err error
	switch ext {
	case ".txt", ".md":
		text = string(data)
	case ".pdf":
		if e.unidocLicensed {
			text, err = extractTextFromPDFUnidoc(data)
		} else {
			text, err = extractTextFromPDF(data)
		}
	case ".docx":
		text, err = extractTextFromDOCX(data)
	case ".xlsx":
		text, err = extractTextFromXLSX(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyDocument
	}

	e.logger.Info("Extracted upload text",
		zap.String("file", filename),
		zap.Int("characters", len(text)))
	return text, nil
}

// IsSupportedFile reports whether ExtractText can handle the file name.
func IsSupportedFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// extractTextFromPDFUnidoc uses UniPDF to get all text from a PDF.
func extractTextFromPDFUnidoc(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			return "", err
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", err
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", err
		}
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

func extractTextFromPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", pageNum, err)
		}
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// extractTextFromDOCX returns the document's paragraphs, one per line.
// docconv reads the main part through [Content_Types].xml and dereferences it
// unchecked, so a package without one is rejected first.
func extractTextFromDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var hasTypes, hasBody bool
	for _, f := range zr.File {
		switch f.Name {
		case "[Content_Types].xml":
			hasTypes = true
		case "word/document.xml":
			hasBody = true
		}
	}
	if !hasTypes || !hasBody {
		return "", errors.New("not a Word document: missing [Content_Types].xml or word/document.xml")
	}

	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// extractTextFromXLSX renders every sheet as tab separated rows under a
// sheet header.
func extractTextFromXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %w", sheet, err)
		}
		fmt.Fprintf(&sb, "--- Content from sheet: %s ---\n", sheet)
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
