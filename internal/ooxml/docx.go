package ooxml

import (
	"strings"
)

// Document accumulates paragraphs for a Word file.
type Document struct {
	body strings.Builder
	n    int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// AddParagraph appends one paragraph. Tabs inside text become their own runs.
func (d *Document) AddParagraph(text string) {
	d.body.WriteString("<w:p>")
	for i, chunk := range strings.Split(text, "\t") {
		if i > 0 {
			d.body.WriteString("<w:r><w:tab/></w:r>")
		}
		if chunk != "" {
			d.body.WriteString(`<w:r><w:t xml:space="preserve">`)
			d.body.WriteString(escape(chunk))
			d.body.WriteString("</w:t></w:r>")
		}
	}
	d.body.WriteString("</w:p>")
	d.n++
}

// AddPageBreak starts a new page.
func (d *Document) AddPageBreak() {
	d.body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
	d.n++
}

// AddPage appends the text of one PDF page, one paragraph per line. Blank
// lines are dropped.
func (d *Document) AddPage(text string) {
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimRight(line, " \r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		d.AddParagraph(line)
	}
}

// Len returns the number of paragraphs, page breaks included.
func (d *Document) Len() int {
	return d.n
}

// Save writes the document to path.
func (d *Document) Save(path string) error {
	document := xmlHeader +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + d.body.String() +
		`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`

	return savePackage(path, []part{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRootRels)},
		{"docProps/app.xml", []byte(appProps)},
		{"word/document.xml", []byte(document)},
	})
}

const docxContentTypes = xmlHeader +
	`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
	`</Types>`

const docxRootRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const appProps = xmlHeader +
	`<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>pdf2all</Application></Properties>`
