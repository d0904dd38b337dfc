package dothttp

import (
	"strconv"
	"strings"
)

// lineRec is one physical line of a .http file, with its 1-based source
// line number, after line-ending normalization.
type lineRec struct {
	text string
	num  int
}

// splitIntoBlocks groups the file's lines into per-script blocks, delimited
// by "###" separator lines. A block's name comes from text trailing the
// separator that precedes it; the very first block (before any separator)
// has no name from a separator. Two consecutive separators yield an empty
// block, preserved so indices/"#<n>" naming stay stable — the executor
// skips empty scripts, not the parser.
func splitIntoBlocks(lines []lineRec) (blocks [][]lineRec, names []string) {
	var current []lineRec
	nextName := ""
	sawAnySeparator := false

	flush := func() {
		blocks = append(blocks, current)
		names = append(names, nextName)
		current = nil
		nextName = ""
	}

	for _, l := range lines {
		trimmed := strings.TrimSpace(l.text)
		if strings.HasPrefix(trimmed, requestSeparator) {
			if sawAnySeparator || len(current) > 0 {
				flush()
			}
			sawAnySeparator = true
			nextName = strings.TrimSpace(strings.TrimPrefix(trimmed, requestSeparator))
			continue
		}
		current = append(current, l)
	}
	if len(current) > 0 || sawAnySeparator {
		flush()
	}
	return blocks, names
}

// blockParser parses the lines of a single request script block.
type blockParser struct {
	lines []lineRec
	pos   int
}

func (b *blockParser) atEnd() bool { return b.pos >= len(b.lines) }

func (b *blockParser) peek() lineRec {
	if b.atEnd() {
		return lineRec{}
	}
	return b.lines[b.pos]
}

func (b *blockParser) advance() lineRec {
	l := b.peek()
	b.pos++
	return l
}

// parseBlock turns one block's lines into a RequestScript. Returns a script
// with IsEmpty() true if the block carries no request line.
func parseBlock(lines []lineRec, name string, index int) (*RequestScript, error) {
	bp := &blockParser{lines: lines}
	script := &RequestScript{Name: name, Index: index}
	if len(lines) > 0 {
		script.Line = lines[0].num
	}

	if err := bp.parsePreamble(script); err != nil {
		return nil, err
	}
	if bp.atEnd() {
		return script, nil // empty block: comments/blank lines only, no request line
	}

	if err := bp.parseRequestLine(script); err != nil {
		return nil, err
	}
	if err := bp.parseHeaders(script); err != nil {
		return nil, err
	}
	if err := bp.parseBodyAndPostHandler(script); err != nil {
		return nil, err
	}

	if script.Name == "" {
		script.Name = defaultScriptName(index)
	}
	return script, nil
}

func defaultScriptName(index int) string {
	return "#" + strconv.Itoa(index)
}

// parsePreamble consumes blank lines, comments, `@name = value`
// declarations, and pre-request handlers (a later one replaces an earlier
// one), stopping at the first line that looks like the request line.
func (b *blockParser) parsePreamble(script *RequestScript) error {
	for !b.atEnd() {
		l := b.peek()
		trimmed := strings.TrimSpace(l.text)
		if trimmed == "" {
			b.advance()
			continue
		}

		switch determineLineType(trimmed) {
		case linePreHandlerOpen:
			body, err := b.consumeHandlerBlock(preHandlerOpen)
			if err != nil {
				return err
			}
			script.PreHandler = &ScriptBlock{Body: body}
			continue
		case lineTypeComment:
			b.advance()
			processCommentDirectives(trimmed, script, l.num)
			continue
		case lineTypeVariableDefinition:
			b.advance()
			decl, err := parseVariableDeclaration(trimmed, l.num)
			if err != nil {
				return err
			}
			script.VariableDeclarations = append(script.VariableDeclarations, decl)
			continue
		default:
			return nil // request line begins here
		}
	}
	return nil
}

// parseVariableDeclaration parses "@name = value" into a VariableDeclaration.
func parseVariableDeclaration(trimmed string, lineNum int) (VariableDeclaration, error) {
	withoutAt := strings.TrimPrefix(trimmed, variableDeclMark)
	parts := strings.SplitN(withoutAt, "=", 2)
	if len(parts) != 2 {
		return VariableDeclaration{}, &ParseError{Line: lineNum, Expected: "'@name = value'"}
	}
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return VariableDeclaration{}, &ParseError{Line: lineNum, Expected: "non-empty variable name after '@'"}
	}
	value := strings.TrimSpace(parts[1])
	tmpl, err := parseTemplate(value, lineNum, len(trimmed)-len(value))
	if err != nil {
		return VariableDeclaration{}, err
	}
	return VariableDeclaration{Name: name, Value: tmpl}, nil
}

// consumeHandlerBlock consumes a `< {% ... %}` or `> {% ... %}` handler,
// which may open and close on one line or span several, and returns its
// trimmed raw body.
func (b *blockParser) consumeHandlerBlock(openMarker string) (string, error) {
	first := b.advance()
	trimmed := strings.TrimSpace(first.text)
	remainder := strings.TrimSpace(strings.TrimPrefix(trimmed, openMarker))

	if idx := strings.Index(remainder, handlerClose); idx != -1 {
		return strings.TrimSpace(remainder[:idx]), nil
	}

	var buf strings.Builder
	buf.WriteString(remainder)
	for !b.atEnd() {
		l := b.advance()
		if idx := strings.Index(l.text, handlerClose); idx != -1 {
			buf.WriteString("\n")
			buf.WriteString(l.text[:idx])
			return strings.TrimSpace(buf.String()), nil
		}
		buf.WriteString("\n")
		buf.WriteString(l.text)
	}
	return "", &ParseError{Line: first.num, Expected: "closing '%}' for handler block"}
}

// parseRequestLine parses the method/URL/http-version line, including any
// continuation lines indented by at least one space (spec §4.A).
func (b *blockParser) parseRequestLine(script *RequestScript) error {
	first := b.advance()
	trimmed := strings.TrimSpace(first.text)

	method := "GET"
	rest := trimmed
	fields := strings.Fields(trimmed)
	if len(fields) > 0 && isValidHTTPMethod(fields[0]) {
		method = fields[0]
		rest = strings.TrimSpace(strings.TrimPrefix(trimmed, fields[0]))
	}

	var urlBuilder strings.Builder
	urlBuilder.WriteString(rest)
	httpVersion, done := extractTrailingVersion(&urlBuilder)

	for !done && !b.atEnd() {
		next := b.peek()
		if strings.TrimSpace(next.text) == "" {
			break
		}
		if !startsWithIndent(next.text) {
			break
		}
		b.advance()
		urlBuilder.WriteString(strings.TrimSpace(next.text))
		httpVersion, done = extractTrailingVersion(&urlBuilder)
	}

	urlText := urlBuilder.String()
	tmpl, err := parseTemplate(urlText, first.num, 0)
	if err != nil {
		return err
	}

	script.Request = RequestLine{Method: method, Target: tmpl, HTTPVersion: httpVersion}
	return nil
}

// startsWithIndent reports whether line begins with at least one space or
// tab (i.e. is a continuation line, not a fresh header/content line).
func startsWithIndent(line string) bool {
	return len(line) > 0 && (line[0] == ' ' || line[0] == '\t')
}

// extractTrailingVersion checks the builder's current content for a
// trailing " HTTP/1.x" marker, stripping it and returning the version plus
// whether the request line is now complete.
func extractTrailingVersion(b *strings.Builder) (version string, done bool) {
	text := b.String()
	idx := strings.LastIndex(text, " ")
	if idx == -1 {
		return "", false
	}
	candidate := text[idx+1:]
	if !isValidHTTPVersion(candidate) {
		return "", false
	}
	b.Reset()
	b.WriteString(text[:idx])
	return candidate, true
}

// parseHeaders consumes zero or more "Name: value" lines until a blank
// line, a post-handler open marker, or the end of the block.
func (b *blockParser) parseHeaders(script *RequestScript) error {
	for !b.atEnd() {
		l := b.peek()
		trimmed := strings.TrimSpace(l.text)
		if trimmed == "" {
			b.advance()
			return nil
		}
		if determineLineType(trimmed) == linePostHandlerOpen {
			return nil
		}
		name, value, ok := splitHeaderLine(trimmed)
		if !ok {
			return nil // not a header line: body begins here
		}
		b.advance()
		nameTmpl, err := parseTemplate(name, l.num, 0)
		if err != nil {
			return err
		}
		valueTmpl, err := parseTemplate(value, l.num, len(name)+1)
		if err != nil {
			return err
		}
		script.Headers = append(script.Headers, Header{Name: nameTmpl, Value: valueTmpl})
	}
	return nil
}

// parseBodyAndPostHandler consumes the raw body byte range, stopping at a
// post-handler open marker or end of block, then the optional handler
// itself.
func (b *blockParser) parseBodyAndPostHandler(script *RequestScript) error {
	var bodyLines []string
	for !b.atEnd() {
		l := b.peek()
		if determineLineType(strings.TrimSpace(l.text)) == linePostHandlerOpen {
			break
		}
		bodyLines = append(bodyLines, l.text)
		b.advance()
	}

	bodyText := strings.Join(bodyLines, "\n")
	tmpl, err := parseTemplate(bodyText, script.Line, 0)
	if err != nil {
		return err
	}
	script.Body = tmpl

	if !b.atEnd() {
		body, err := b.consumeHandlerBlock(postHandlerOpen)
		if err != nil {
			return err
		}
		script.ResponseHandler = &ScriptBlock{Body: body}
	}
	return nil
}
