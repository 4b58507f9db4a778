package cst

// InputEdit describes a single text edit in both byte and position
// coordinates, the shape an incremental reparse needs to reuse the
// unchanged parts of the previous tree.
type InputEdit struct {
	StartByte   int
	OldEndByte  int
	NewEndByte  int
	StartPoint  Position
	OldEndPoint Position
	NewEndPoint Position
}
