package ooxml

import (
	"fmt"
	"strings"

	"github.com/xj-bear/pdf2all/internal/domain"
)

// EMUPerInch converts inches to the English Metric Units used by DrawingML.
const EMUPerInch = 914400

// Widescreen slide size, 13.333 x 7.5 inches.
const (
	SlideWidth  int64 = 12192000
	SlideHeight int64 = 6858000
)

// Rect is a placement on a slide in EMU.
type Rect struct {
	X, Y, CX, CY int64
}

// FitCentered scales an image of imgW x imgH to fit inside the slide while
// keeping its aspect ratio, and centres it.
func FitCentered(imgW, imgH int, slideW, slideH int64) Rect {
	if imgW <= 0 || imgH <= 0 {
		return Rect{CX: slideW, CY: slideH}
	}
	aspect := float64(imgW) / float64(imgH)
	var cx, cy int64
	if aspect > float64(slideW)/float64(slideH) {
		cx = slideW
		cy = int64(float64(slideW) / aspect)
	} else {
		cy = slideH
		cx = int64(float64(slideH) * aspect)
	}
	return Rect{X: (slideW - cx) / 2, Y: (slideH - cy) / 2, CX: cx, CY: cy}
}

type picture struct {
	jpeg []byte
	at   Rect
}

// Presentation is a deck of full-slide pictures.
type Presentation struct {
	width, height int64
	slides        []picture
}

// NewPresentation returns an empty widescreen deck.
func NewPresentation() *Presentation {
	return &Presentation{width: SlideWidth, height: SlideHeight}
}

// AddPicture appends a slide holding a JPEG image of pxW x pxH pixels,
// fitted and centred.
func (p *Presentation) AddPicture(jpeg []byte, pxW, pxH int) {
	p.slides = append(p.slides, picture{
		jpeg: jpeg,
		at:   FitCentered(pxW, pxH, p.width, p.height),
	})
}

// SlideCount returns the number of slides added so far.
func (p *Presentation) SlideCount() int {
	return len(p.slides)
}

// Save writes the deck to path. A deck without slides is rejected.
func (p *Presentation) Save(path string) error {
	if len(p.slides) == 0 {
		return domain.ConversionError("presentation has no slides", domain.ErrNoPages)
	}

	parts := []part{
		{"[Content_Types].xml", []byte(p.contentTypes())},
		{"_rels/.rels", []byte(pptxRootRels)},
		{"docProps/app.xml", []byte(appProps)},
		{"ppt/presentation.xml", []byte(p.presentation())},
		{"ppt/_rels/presentation.xml.rels", []byte(p.presentationRels())},
		{"ppt/slideMasters/slideMaster1.xml", []byte(slideMaster)},
		{"ppt/slideMasters/_rels/slideMaster1.xml.rels", []byte(slideMasterRels)},
		{"ppt/slideLayouts/slideLayout1.xml", []byte(slideLayout)},
		{"ppt/slideLayouts/_rels/slideLayout1.xml.rels", []byte(slideLayoutRels)},
		{"ppt/theme/theme1.xml", []byte(theme)},
	}
	for i, s := range p.slides {
		n := i + 1
		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", n), []byte(slideXML(n, s.at))},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), []byte(slideRels(n))},
			part{fmt.Sprintf("ppt/media/image%d.jpeg", n), s.jpeg},
		)
	}
	return savePackage(path, parts)
}

func (p *Presentation) contentTypes() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	b.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	b.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	b.WriteString(`<Default Extension="jpeg" ContentType="image/jpeg"/>`)
	b.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`)
	b.WriteString(`<Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>`)
	b.WriteString(`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>`)
	for i := range p.slides {
		fmt.Fprintf(&b, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	b.WriteString(`</Types>`)
	return b.String()
}

// Relationship ids in presentation.xml.rels: rId1 master, rId2 theme, then
// one per slide starting at rId3.
func (p *Presentation) presentation() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:presentation xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" saveSubsetFonts="1">`)
	b.WriteString(`<p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst>`)
	b.WriteString(`<p:sldIdLst>`)
	for i := range p.slides {
		fmt.Fprintf(&b, `<p:sldId id="%d" r:id="rId%d"/>`, 256+i, i+3)
	}
	b.WriteString(`</p:sldIdLst>`)
	fmt.Fprintf(&b, `<p:sldSz cx="%d" cy="%d"/>`, p.width, p.height)
	b.WriteString(`<p:notesSz cx="6858000" cy="9144000"/>`)
	b.WriteString(`</p:presentation>`)
	return b.String()
}

func (p *Presentation) presentationRels() string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	b.WriteString(`<Relationship Id="rId1" Type="` + relBase + `/slideMaster" Target="slideMasters/slideMaster1.xml"/>`)
	b.WriteString(`<Relationship Id="rId2" Type="` + relBase + `/theme" Target="theme/theme1.xml"/>`)
	for i := range p.slides {
		fmt.Fprintf(&b, `<Relationship Id="rId%d" Type="`+relBase+`/slide" Target="slides/slide%d.xml"/>`, i+3, i+1)
	}
	b.WriteString(`</Relationships>`)
	return b.String()
}

func slideXML(n int, at Rect) string {
	return xmlHeader +
		`<p:sld xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
		`<p:cSld><p:spTree>` + emptyGroup +
		fmt.Sprintf(`<p:pic><p:nvPicPr><p:cNvPr id="2" name="Page %d"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`, n) +
		`<p:blipFill><a:blip r:embed="rId2"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>` +
		fmt.Sprintf(`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`, at.X, at.Y, at.CX, at.CY) +
		`</p:pic></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`
}

func slideRels(n int) string {
	return xmlHeader +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
		`<Relationship Id="rId1" Type="` + relBase + `/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
		fmt.Sprintf(`<Relationship Id="rId2" Type="`+relBase+`/image" Target="../media/image%d.jpeg"/>`, n) +
		`</Relationships>`
}

const (
	nsA     = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR     = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsP     = "http://schemas.openxmlformats.org/presentationml/2006/main"
	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	emptyGroup = `<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>` +
		`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`
)

const pptxRootRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relBase + `/officeDocument" Target="ppt/presentation.xml"/>` +
	`<Relationship Id="rId2" Type="` + relBase + `/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const slideMaster = xmlHeader +
	`<p:sldMaster xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `">` +
	`<p:cSld><p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
	`<p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst>` +
	`</p:sldMaster>`

const slideMasterRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relBase + `/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
	`<Relationship Id="rId2" Type="` + relBase + `/theme" Target="../theme/theme1.xml"/>` +
	`</Relationships>`

const slideLayout = xmlHeader +
	`<p:sldLayout xmlns:a="` + nsA + `" xmlns:r="` + nsR + `" xmlns:p="` + nsP + `" type="blank" preserve="1">` +
	`<p:cSld name="Blank"><p:spTree>` + emptyGroup + `</p:spTree></p:cSld>` +
	`<p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

const slideLayoutRels = xmlHeader +
	`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="` + relBase + `/slideMaster" Target="../slideMasters/slideMaster1.xml"/>` +
	`</Relationships>`

const theme = xmlHeader +
	`<a:theme xmlns:a="` + nsA + `" name="pdf2all">` +
	`<a:themeElements>` +
	`<a:clrScheme name="pdf2all">` +
	`<a:dk1><a:srgbClr val="000000"/></a:dk1><a:lt1><a:srgbClr val="FFFFFF"/></a:lt1>` +
	`<a:dk2><a:srgbClr val="1F1F1F"/></a:dk2><a:lt2><a:srgbClr val="EEEEEE"/></a:lt2>` +
	`<a:accent1><a:srgbClr val="4472C4"/></a:accent1><a:accent2><a:srgbClr val="ED7D31"/></a:accent2>` +
	`<a:accent3><a:srgbClr val="A5A5A5"/></a:accent3><a:accent4><a:srgbClr val="FFC000"/></a:accent4>` +
	`<a:accent5><a:srgbClr val="5B9BD5"/></a:accent5><a:accent6><a:srgbClr val="70AD47"/></a:accent6>` +
	`<a:hlink><a:srgbClr val="0563C1"/></a:hlink><a:folHlink><a:srgbClr val="954F72"/></a:folHlink>` +
	`</a:clrScheme>` +
	`<a:fontScheme name="pdf2all">` +
	`<a:majorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont>` +
	`<a:minorFont><a:latin typeface="Calibri"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont>` +
	`</a:fontScheme>` +
	`<a:fmtScheme name="pdf2all">` +
	`<a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst>` +
	`<a:lnStyleLst><a:ln w="6350"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="12700"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst>` +
	`<a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst>` +
	`<a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst>` +
	`</a:fmtScheme>` +
	`</a:themeElements></a:theme>`
