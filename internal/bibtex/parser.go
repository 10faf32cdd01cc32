package bibtex

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseError describes a problem with a single entry. Parse errors are
// per-entry and never abort parsing of the rest of the file.
type ParseError struct {
	File string
	Line int
	Key  string
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s:%d: entry %q: %s", e.File, e.Line, e.Key, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// ParseFile parses a single .bib source file. The returned errors describe
// rejected entries (missing key, within-file duplicates); a non-nil error is
// returned only when the file itself cannot be read.
func ParseFile(path string) ([]Record, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading bib file: %w", err)
	}
	records, errs := Parse(string(data), path)
	return records, errs, nil
}

// Parse parses raw BibTeX text into records. Within-file duplicates are
// dropped: a repeated citation key keeps the first entry, and a repeated
// non-empty DOI keeps the first entry carrying it. Titles are never used for
// deduplication since distinct works legitimately share titles.
func Parse(text, file string) ([]Record, []error) {
	p := &parser{text: text, file: file, line: 1}

	var records []Record
	var errs []error
	seenKeys := make(map[string]bool)
	seenDOIs := make(map[string]bool)

	for {
		entry, err := p.nextEntry()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if entry == nil {
			break
		}

		if entry.key == "" {
			errs = append(errs, &ParseError{File: file, Line: entry.line, Msg: "entry without citation key"})
			continue
		}
		if seenKeys[entry.key] {
			errs = append(errs, &ParseError{File: file, Line: entry.line, Key: entry.key, Msg: "duplicate citation key"})
			continue
		}

		doi := NormalizeDOI(entry.fields["doi"])
		if doi != "" && seenDOIs[doi] {
			errs = append(errs, &ParseError{File: file, Line: entry.line, Key: entry.key, Msg: "duplicate DOI " + doi})
			continue
		}

		seenKeys[entry.key] = true
		if doi != "" {
			seenDOIs[doi] = true
		}

		records = append(records, buildRecord(entry, doi))
	}

	return records, errs
}

// buildRecord converts a raw entry into a normalized Record.
func buildRecord(e *entry, doi string) Record {
	rec := Record{
		Key:       e.key,
		DOI:       doi,
		Title:     cleanValue(e.fields["title"]),
		Type:      PublicationType(e.entryType),
		Authors:   SplitAuthors(cleanValue(e.fields["author"])),
		Editors:   SplitAuthors(cleanValue(e.fields["editor"])),
		Volume:    cleanValue(e.fields["volume"]),
		Number:    cleanValue(e.fields["number"]),
		Pages:     cleanValue(e.fields["pages"]),
		Publisher: cleanValue(e.fields["publisher"]),
		URL:       strings.TrimSpace(e.fields["url"]),
	}
	rec.NormalizedTitle = NormalizeText(rec.Title)

	if year, err := strconv.Atoi(strings.TrimSpace(e.fields["year"])); err == nil {
		rec.Year = year
	}

	// Journal takes precedence over booktitle when both appear.
	if j := cleanValue(e.fields["journal"]); j != "" {
		rec.Venue = j
		rec.VenueType = VenueTypeJournal
	} else if b := cleanValue(e.fields["booktitle"]); b != "" {
		rec.Venue = b
		rec.VenueType = VenueTypeConference
	}

	return rec
}

// cleanValue strips brace groups and collapses line-continuation whitespace,
// after translating the accent escapes DBLP emits.
func cleanValue(v string) string {
	v = latexToUnicode(v)
	v = strings.ReplaceAll(v, "{", "")
	v = strings.ReplaceAll(v, "}", "")
	return strings.Join(strings.Fields(v), " ")
}

// accentReplacer covers the accent forms that occur in DBLP exports.
var accentReplacer = strings.NewReplacer(
	`{\"a}`, "ä", `{\"o}`, "ö", `{\"u}`, "ü", `{\"e}`, "ë", `{\"i}`, "ï",
	`{\"A}`, "Ä", `{\"O}`, "Ö", `{\"U}`, "Ü",
	`{\'a}`, "á", `{\'e}`, "é", `{\'i}`, "í", `{\'o}`, "ó", `{\'u}`, "ú",
	`{\'A}`, "Á", `{\'E}`, "É", `{\'O}`, "Ó",
	"{\\`a}", "à", "{\\`e}", "è", "{\\`o}", "ò", "{\\`u}", "ù",
	`{\^a}`, "â", `{\^e}`, "ê", `{\^i}`, "î", `{\^o}`, "ô",
	`{\~a}`, "ã", `{\~n}`, "ñ", `{\~o}`, "õ",
	`{\c{c}}`, "ç", `{\c{C}}`, "Ç",
	`{\ss}`, "ß", `{\o}`, "ø", `{\O}`, "Ø", `{\aa}`, "å", `{\AA}`, "Å",
	`{\l}`, "ł", `{\L}`, "Ł", `{\ae}`, "æ", `{\AE}`, "Æ",
)

func latexToUnicode(v string) string {
	if !strings.Contains(v, `\`) {
		return v
	}
	return accentReplacer.Replace(v)
}

// entry is a raw parsed entry before normalization.
type entry struct {
	entryType string
	key       string
	line      int
	fields    map[string]string
}

// parser is a single-pass scanner over BibTeX text.
type parser struct {
	text string
	file string
	pos  int
	line int
}

// nextEntry returns the next publication entry, nil at end of input.
// @comment, @preamble and @string groups are skipped.
func (p *parser) nextEntry() (*entry, error) {
	for {
		if !p.seek('@') {
			return nil, nil
		}
		startLine := p.line
		entryType := strings.ToLower(p.readIdent())

		switch entryType {
		case "comment", "preamble", "string":
			p.skipGroup()
			continue
		case "":
			continue
		}

		p.skipSpace()
		if p.peek() != '{' {
			return nil, &ParseError{File: p.file, Line: startLine, Msg: "expected '{' after @" + entryType}
		}
		p.next() // consume '{'

		e := &entry{
			entryType: entryType,
			key:       strings.TrimSpace(p.readUntil(',', '}')),
			line:      startLine,
			fields:    make(map[string]string),
		}
		if p.peek() == ',' {
			p.next()
		}

		if err := p.readFields(e); err != nil {
			return nil, err
		}
		return e, nil
	}
}

// readFields reads "name = value" pairs until the closing brace.
func (p *parser) readFields(e *entry) error {
	for {
		p.skipSpace()
		switch p.peek() {
		case '}':
			p.next()
			return nil
		case ',':
			p.next()
			continue
		case 0:
			return &ParseError{File: p.file, Line: e.line, Key: e.key, Msg: "unterminated entry"}
		}

		name := strings.ToLower(strings.TrimSpace(p.readUntil('=', '}')))
		if p.peek() != '=' {
			return &ParseError{File: p.file, Line: e.line, Key: e.key, Msg: "malformed field " + name}
		}
		p.next() // consume '='

		value, err := p.readValue(e)
		if err != nil {
			return err
		}
		if name != "" {
			e.fields[name] = value
		}
	}
}

// readValue reads a field value: a balanced brace group, a quoted string, or
// a bare token. Values joined with '#' are concatenated.
func (p *parser) readValue(e *entry) (string, error) {
	var parts []string
	for {
		p.skipSpace()
		switch p.peek() {
		case '{':
			v, ok := p.readBraced()
			if !ok {
				return "", &ParseError{File: p.file, Line: e.line, Key: e.key, Msg: "unbalanced braces in field value"}
			}
			parts = append(parts, v)
		case '"':
			p.next()
			parts = append(parts, p.readUntil('"'))
			if p.peek() == '"' {
				p.next()
			}
		default:
			parts = append(parts, strings.TrimSpace(p.readUntil(',', '}', '#')))
		}

		p.skipSpace()
		if p.peek() == '#' {
			p.next()
			continue
		}
		return strings.Join(parts, ""), nil
	}
}

// readBraced consumes a {…} group with nesting and returns its contents.
func (p *parser) readBraced() (string, bool) {
	p.next() // consume '{'
	start := p.pos
	depth := 1
	for p.pos < len(p.text) {
		switch p.text[p.pos] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				v := p.text[start:p.pos]
				p.next()
				return v, true
			}
		case '\n':
			p.line++
		}
		p.pos++
	}
	return "", false
}

// skipGroup consumes a balanced {…} or (…) group without interpreting it.
func (p *parser) skipGroup() {
	p.skipSpace()
	open := p.peek()
	var close byte
	switch open {
	case '{':
		close = '}'
	case '(':
		close = ')'
	default:
		return
	}
	p.next()
	depth := 1
	for p.pos < len(p.text) && depth > 0 {
		switch p.text[p.pos] {
		case open:
			depth++
		case close:
			depth--
		case '\n':
			p.line++
		}
		p.pos++
	}
}

// seek advances to just past the next occurrence of c.
func (p *parser) seek(c byte) bool {
	for p.pos < len(p.text) {
		ch := p.text[p.pos]
		p.pos++
		if ch == '\n' {
			p.line++
		}
		if ch == c {
			return true
		}
	}
	return false
}

// readIdent reads an identifier of letters.
func (p *parser) readIdent() string {
	start := p.pos
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
			continue
		}
		break
	}
	return p.text[start:p.pos]
}

// readUntil reads up to (not including) the first of the stop bytes.
func (p *parser) readUntil(stops ...byte) string {
	start := p.pos
	for p.pos < len(p.text) {
		c := p.text[p.pos]
		for _, s := range stops {
			if c == s {
				return p.text[start:p.pos]
			}
		}
		if c == '\n' {
			p.line++
		}
		p.pos++
	}
	return p.text[start:]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.text) {
		switch p.text[p.pos] {
		case '\n':
			p.line++
			fallthrough
		case ' ', '\t', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos < len(p.text) {
		return p.text[p.pos]
	}
	return 0
}

func (p *parser) next() {
	if p.pos < len(p.text) {
		if p.text[p.pos] == '\n' {
			p.line++
		}
		p.pos++
	}
}
