package container

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/arloliu/fastxlsx/format"
)

// Part names inside the archive.
const (
	ContentTypesPart  = "[Content_Types].xml"
	RootRelsPart      = "_rels/.rels"
	WorkbookPart      = "book.xml"
	WorkbookRelsPart  = "_rels/book.xml.rels"
	StylesPart        = "styles.xml"
	SharedStringsPart = "strings.xml"
	SheetPart         = "sheet.xml"
)

// partOrder is the order of entries in the archive.
var partOrder = []string{
	ContentTypesPart,
	RootRelsPart,
	WorkbookPart,
	WorkbookRelsPart,
	StylesPart,
	SharedStringsPart,
	SheetPart,
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"

const contentTypesXML = xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/book.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>
<Override PartName="/sheet.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>
<Override PartName="/strings.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"/>
<Override PartName="/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/>
</Types>`

const rootRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Target="book.xml" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"/>
</Relationships>`

const workbookRelsXML = xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Target="sheet.xml" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet"/>
<Relationship Id="rId2" Target="strings.xml" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/sharedStrings"/>
<Relationship Id="rId3" Target="styles.xml" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles"/>
</Relationships>`

const (
	sstNamespace  = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	relsNamespace = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

// Formats holds the number format codes of the formatted style slots.
type Formats struct {
	DateTime string
	Date     string
	Time     string
	Integer  string
	Number   string
}

// DefaultFormats returns the default format codes.
func DefaultFormats() Formats {
	return Formats{
		DateTime: format.DefaultDateTimeFormat,
		Date:     format.DefaultDateFormat,
		Time:     format.DefaultTimeFormat,
		Integer:  format.DefaultIntegerFormat,
		Number:   format.DefaultNumberFormat,
	}
}

// code returns the format code bound to a formatted slot.
func (f Formats) code(slot format.StyleSlot) string {
	switch slot { //nolint: exhaustive
	case format.StyleDateTime:
		return f.DateTime
	case format.StyleDate:
		return f.Date
	case format.StyleTime:
		return f.Time
	case format.StyleInteger:
		return f.Integer
	case format.StyleNumber:
		return f.Number
	default:
		return ""
	}
}

// partWriter accumulates write errors so part templates can be written
// without checking every call.
type partWriter struct {
	w   io.Writer
	err error
}

func (p *partWriter) str(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *partWriter) escaped(s string) {
	if p.err == nil {
		p.err = xml.EscapeText(p.w, []byte(s))
	}
}

func (p *partWriter) int(n int) {
	p.str(strconv.Itoa(n))
}

// writeWorkbook writes the workbook part with one sheet reference.
func writeWorkbook(w io.Writer, sheetName string) error {
	p := &partWriter{w: w}
	p.str(xmlHeader)
	p.str(`<workbook xmlns="` + sstNamespace + `" xmlns:r="` + relsNamespace + `">` + "\n")
	p.str("<sheets>\n")
	p.str(`<sheet name="`)
	p.escaped(sheetName)
	p.str(`" sheetId="1" r:id="rId1"/>` + "\n")
	p.str("</sheets>\n")
	p.str("</workbook>")

	return p.err
}

// writeStyles writes the style part. cellXfs entries follow the fixed style
// slots of package format, and formatted slots reference custom number
// formats starting at format.FirstCustomNumFmtID.
func writeStyles(w io.Writer, formats Formats) error {
	p := &partWriter{w: w}
	p.str(xmlHeader)
	p.str(`<styleSheet xmlns="` + sstNamespace + `">` + "\n")

	p.str(`<numFmts count="`)
	p.int(int(format.StyleNumber - format.StyleDateTime + 1))
	p.str(`">` + "\n")
	for slot := format.StyleDateTime; slot <= format.StyleNumber; slot++ {
		p.str(`<numFmt numFmtId="`)
		p.int(slot.NumFmtID())
		p.str(`" formatCode="`)
		p.escaped(formats.code(slot))
		p.str(`"/>` + "\n")
	}
	p.str("</numFmts>\n")

	p.str(`<fonts count="1"><font/></fonts>` + "\n")
	p.str(`<fills count="2"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill></fills>` + "\n")
	p.str(`<borders count="1"><border/></borders>` + "\n")
	p.str(`<cellStyleXfs count="1"><xf/></cellStyleXfs>` + "\n")

	p.str(`<cellXfs count="`)
	p.int(format.StyleCount)
	p.str(`">` + "\n")
	p.str("<xf/>\n")
	p.str(`<xf applyAlignment="1"><alignment wrapText="1"/></xf>` + "\n")
	for slot := format.StyleDateTime; slot <= format.StyleNumber; slot++ {
		p.str(`<xf numFmtId="`)
		p.int(slot.NumFmtID())
		p.str(`" applyNumberFormat="1"/>` + "\n")
	}
	p.str("</cellXfs>\n")
	p.str("</styleSheet>")

	return p.err
}

// writeSharedStrings writes the shared-string part. refs is the number of
// cells referencing the table and values are the distinct strings in id order.
func writeSharedStrings(w io.Writer, values []string, refs int) error {
	p := &partWriter{w: w}
	p.str(xmlHeader)
	p.str(`<sst xmlns="` + sstNamespace + `" count="`)
	p.int(refs)
	p.str(`" uniqueCount="`)
	p.int(len(values))
	p.str(`">`)
	for _, s := range values {
		if needsPreserve(s) {
			p.str(`<si><t xml:space="preserve">`)
		} else {
			p.str("<si><t>")
		}
		p.escaped(s)
		p.str("</t></si>")
	}
	p.str("</sst>")

	return p.err
}

// needsPreserve reports whether s has whitespace that XML parsers would
// otherwise be allowed to collapse.
func needsPreserve(s string) bool {
	if s == "" {
		return false
	}

	return strings.ContainsAny(s[:1], " \t\n\r") ||
		strings.ContainsAny(s[len(s)-1:], " \t\n\r") ||
		strings.ContainsAny(s, "\n\t")
}
