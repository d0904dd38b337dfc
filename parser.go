package dothttp

import (
	"os"
	"strings"
)

// ParseFile reads path and parses it into a File AST (spec §4.A).
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBytes(path, data)
}

// ParseBytes parses raw .http source into a File AST. path is used only to
// stamp File.Path; it need not exist on disk.
func ParseBytes(path string, data []byte) (*File, error) {
	text := normalizeSource(data)
	lines := splitLines(text)

	blocks, names := splitIntoBlocks(lines)
	file := &File{Path: path}
	for i, block := range blocks {
		script, err := parseBlock(block, names[i], i+1)
		if err != nil {
			return nil, err
		}
		file.Scripts = append(file.Scripts, *script)
	}
	return file, nil
}

// normalizeSource strips a UTF-8 BOM and normalizes "\r\n"/"\r" line
// terminators to "\n", per spec §4.A.
func normalizeSource(data []byte) string {
	s := string(data)
	s = strings.TrimPrefix(s, "﻿")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return s
}

// splitLines splits normalized text into lineRecs with 1-based line numbers.
func splitLines(text string) []lineRec {
	raw := strings.Split(text, "\n")
	lines := make([]lineRec, 0, len(raw))
	for i, l := range raw {
		lines = append(lines, lineRec{text: l, num: i + 1})
	}
	return lines
}
