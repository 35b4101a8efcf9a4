package board

import (
	"regexp"
	"strconv"
)

// Built-in board attribute keys.
const (
	AttrBoard        = "BOARD"
	AttrBoardDirName = "BOARD_DIRNAME"
	AttrBoardIndex   = "BOARD_INDEX"
	AttrProject      = "PROJECT"
)

// BuiltInAttribute returns the value of a built-in attribute. BOARD_INDEX is
// -1 while the board is not part of the project board list.
func (b *Board) BuiltInAttribute(key string) (string, bool) {
	switch key {
	case AttrBoard:
		return b.name, true
	case AttrBoardDirName:
		return b.dir.Name(), true
	case AttrBoardIndex:
		return strconv.Itoa(b.project.BoardIndex(b)), true
	case AttrProject:
		return b.project.Name(), true
	}
	return "", false
}

// Attributes returns all built-in attributes.
func (b *Board) Attributes() map[string]string {
	out := make(map[string]string, 4)
	for _, k := range []string{AttrBoard, AttrBoardDirName, AttrBoardIndex, AttrProject} {
		out[k], _ = b.BuiltInAttribute(k)
	}
	return out
}

var attrPattern = regexp.MustCompile(`\{\{([A-Z0-9_]+)\}\}`)

// SubstituteAttributes replaces {{KEY}} placeholders with attribute values.
// Unknown keys are left untouched.
func (b *Board) SubstituteAttributes(text string) string {
	return attrPattern.ReplaceAllStringFunc(text, func(m string) string {
		if v, ok := b.BuiltInAttribute(attrPattern.FindStringSubmatch(m)[1]); ok {
			return v
		}
		return m
	})
}
