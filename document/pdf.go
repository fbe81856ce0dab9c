package document

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-pdf/fpdf"
)

// PDFCompiler implements Compiler on go-pdf/fpdf: one full-bleed A4 page
// per image. Images are validated before they reach fpdf because its error
// state is sticky and would poison every later page.
type PDFCompiler struct {
	pdf   *fpdf.Fpdf
	pages int
	done  bool
}

func NewPDFCompiler() *PDFCompiler {
	return &PDFCompiler{pdf: fpdf.New("P", "mm", "A4", "")}
}

func (c *PDFCompiler) AppendPage(img []byte) error {
	if c.done {
		return errors.New("document already finalized")
	}
	if len(img) == 0 {
		return errors.New("empty image")
	}

	format, err := sniffFormat(img)
	if err != nil {
		return err
	}

	c.pages++
	name := fmt.Sprintf("page-%d", c.pages)
	opts := fpdf.ImageOptions{ImageType: format}

	c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
	c.pdf.AddPage()
	w, h := c.pdf.GetPageSize()
	c.pdf.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")

	if c.pdf.Err() {
		return fmt.Errorf("append page %d: %w", c.pages, c.pdf.Error())
	}
	return nil
}

func (c *PDFCompiler) Finalize() ([]byte, error) {
	if c.pages == 0 {
		return nil, errors.New("no pages to finalize")
	}
	c.done = true

	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	return buf.Bytes(), nil
}

// sniffFormat decodes just the image header and maps the stdlib format name
// to the identifier fpdf expects.
func sniffFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unsupported image: %w", err)
	}
	switch format {
	case "png":
		return "PNG", nil
	case "jpeg":
		return "JPG", nil
	case "gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}
}
