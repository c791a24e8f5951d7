// Package render builds the text of individual tree lines.
package render

// Tokens that make up a line prefix. Each one is four columns wide.
const (
	// Blank continues a prefix below a parent that has no further siblings.
	Blank = "    "
	// Bar continues a prefix below a parent that still has siblings.
	Bar = "│   "
	// Tee precedes an entry that is followed by more siblings.
	Tee = "├── "
	// Elbow precedes the last entry of a listing.
	Elbow = "└── "
)

// Separator returns the token drawn in front of an entry's name.
func Separator(isLast bool) string {
	if isLast {
		return Elbow
	}
	return Tee
}

// Line renders a single entry below a parent whose children share prefix.
func Line(prefix string, isLast bool, name string) string {
	return prefix + Separator(isLast) + name
}

// ChildPrefix returns the prefix handed to the children of an entry.
func ChildPrefix(prefix string, isLast bool) string {
	if isLast {
		return prefix + Blank
	}
	return prefix + Bar
}
