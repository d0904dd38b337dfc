package dothttp

import "strings"

const (
	requestSeparator  = "###"
	commentPrefix     = "#"
	preHandlerOpen    = "< {%"
	postHandlerOpen   = "> {%"
	handlerClose      = "%}"
	variableDeclMark  = "@"
)

// lineType categorizes a single line of a .http file during parsing.
type lineType int

const (
	lineTypeSeparator lineType = iota
	lineTypeVariableDefinition
	lineTypeComment
	linePreHandlerOpen
	linePostHandlerOpen
	lineTypeContent
)

// determineLineType classifies a trimmed line. Lines already inside a
// handler body or a request body are handled separately by the caller,
// since their contents must not be reinterpreted as directives.
func determineLineType(trimmed string) lineType {
	switch {
	case strings.HasPrefix(trimmed, requestSeparator):
		return lineTypeSeparator
	case strings.HasPrefix(trimmed, preHandlerOpen):
		return linePreHandlerOpen
	case strings.HasPrefix(trimmed, postHandlerOpen):
		return linePostHandlerOpen
	case strings.HasPrefix(trimmed, commentPrefix) && !strings.HasPrefix(trimmed, requestSeparator):
		return lineTypeComment
	case strings.HasPrefix(trimmed, variableDeclMark):
		return lineTypeVariableDefinition
	default:
		return lineTypeContent
	}
}
