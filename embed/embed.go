// Package embed produces the signed output document: every page of the
// original plus a first-page attribution line and a scannable verification
// code linking to the anchor record.
//
// This is a pure transform: no network, no ledger access, and the input
// document is never modified.
package embed

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdi"
	"github.com/signintech/gopdf"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font/gofont/gomonobold"

	"github.com/docanchor/docanchor/document"
)

// Overlay geometry, in page-coordinate units. The block reserves a
// fixed-size right-margin strip sized for two lines of attribution and the
// code beneath them.
const (
	marginWidth   = 155.0
	textBandY     = 135.0 // text top, measured from the bottom edge
	codeBandY     = 110.0 // code top, measured from the bottom edge
	fontSize      = 12.0
	lineHeight    = 15.0
	edgePadding   = 10.0
	moduleSize    = 2.4 // side of one QR module
	outputName    = "signed_doc"
	fontAlias     = "attribution"
	defaultOutExt = ".pdf"
)

// Verification embeds issuer attribution and a scannable code for verifyURL
// into the first page of original and returns the result as a new document
// named "signed_doc" with the original's extension and media type.
//
// On any failure the zero Document and an *Error are returned; there is no
// partial output.
func Verification(original document.Document, issuer, verifyURL string) (document.Document, error) {
	if strings.TrimSpace(verifyURL) == "" {
		return document.Document{}, newError("verification URL is required", nil)
	}
	src := original.Bytes()
	if len(src) == 0 {
		return document.Document{}, newError("source document is empty", nil)
	}

	pages, pageW, pageH, err := sourceGeometry(src)
	if err != nil {
		return document.Document{}, newError("read source document", err)
	}
	if pages == 0 {
		return document.Document{}, newError("source document has no pages", nil)
	}

	out, err := compose(src, pages, pageW, pageH, issuer, verifyURL)
	if err != nil {
		return document.Document{}, err
	}

	ext := original.Ext()
	if ext == "" {
		ext = defaultOutExt
	}
	mimeType := original.MIMEType()
	if mimeType == "" {
		mimeType = "application/pdf"
	}
	return document.New(outputName+ext, mimeType, out), nil
}

// sourceGeometry returns the page count and first-page media box of the
// source. The importer panics on malformed input, so failures are recovered
// into ordinary errors here.
func sourceGeometry(src []byte) (pages int, w, h float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, w, h = 0, 0, 0
			err = fmt.Errorf("parse source: %v", r)
		}
	}()

	rs := io.ReadSeeker(bytes.NewReader(src))
	imp := gofpdi.NewImporter()
	imp.SetSourceStream(&rs)

	pages = imp.GetNumPages()
	if pages == 0 {
		return 0, 0, 0, nil
	}
	sizes := imp.GetPageSizes()
	box, ok := sizes[1]["/MediaBox"]
	if !ok {
		return 0, 0, 0, fmt.Errorf("first page has no media box")
	}
	w, h = box["w"], box["h"]
	if w <= 0 || h <= 0 {
		return 0, 0, 0, fmt.Errorf("first page has degenerate media box %gx%g", w, h)
	}
	return pages, w, h, nil
}

func compose(src []byte, pages int, pageW, pageH float64, issuer, verifyURL string) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = newError("compose output document", fmt.Errorf("%v", r))
		}
	}()

	pdf := &gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: pageW, H: pageH}})

	if ferr := pdf.AddTTFFontData(fontAlias, gomonobold.TTF); ferr != nil {
		return nil, newError("load attribution font", ferr)
	}
	if ferr := pdf.SetFont(fontAlias, "", fontSize); ferr != nil {
		return nil, newError("select attribution font", ferr)
	}

	for page := 1; page <= pages; page++ {
		pdf.AddPage()
		rs := io.ReadSeeker(bytes.NewReader(src))
		tpl := pdf.ImportPageStream(&rs, page, "/MediaBox")
		pdf.UseImportedTemplate(tpl, 0, 0, pageW, pageH)
		if page == 1 {
			if derr := drawOverlay(pdf, pageW, pageH, issuer, verifyURL); derr != nil {
				return nil, newError("draw verification overlay", derr)
			}
		}
	}

	out, gerr := pdf.GetBytesPdfReturnErr()
	if gerr != nil {
		return nil, newError("serialize output document", gerr)
	}
	return out, nil
}

// drawOverlay renders the attribution lines and the code block at the
// top-right anchor point. Text wraps within the remaining margin instead of
// overflowing the page edge.
func drawOverlay(pdf *gopdf.GoPdf, pageW, pageH float64, issuer, verifyURL string) error {
	anchorX := pageW - marginWidth
	maxWidth := pageW - anchorX - edgePadding

	y := pageH - textBandY
	for _, segment := range []string{"Signed by " + issuer, "Verify at"} {
		lines, err := pdf.SplitText(segment, maxWidth)
		if err != nil {
			return err
		}
		for _, line := range lines {
			pdf.SetXY(anchorX, y)
			if err := pdf.Cell(nil, line); err != nil {
				return err
			}
			y += lineHeight
		}
	}

	return drawCode(pdf, anchorX, pageH-codeBandY, verifyURL)
}

// drawCode renders the verification code as vector rectangles, one filled
// square per dark module, so it stays legible at any zoom.
func drawCode(pdf *gopdf.GoPdf, x, y float64, payload string) error {
	code, err := qrcode.New(payload, qrcode.Medium)
	if err != nil {
		return err
	}
	modules := code.Bitmap()

	pdf.SetFillColor(0, 0, 0)
	for row := range modules {
		for col, dark := range modules[row] {
			if !dark {
				continue
			}
			pdf.RectFromUpperLeftWithStyle(
				x+float64(col)*moduleSize,
				y+float64(row)*moduleSize,
				moduleSize, moduleSize, "F")
		}
	}
	return nil
}
