package model

// Symbol is the mark a seat places on the board
type Symbol string

const (
	SymbolNone Symbol = ""
	SymbolX    Symbol = "X"
	SymbolO    Symbol = "O"
)

// Valid returns true for X and O
func (s Symbol) Valid() bool {
	return s == SymbolX || s == SymbolO
}

// Opponent returns the other seat's symbol, or SymbolNone for an invalid symbol
func (s Symbol) Opponent() Symbol {
	switch s {
	case SymbolX:
		return SymbolO
	case SymbolO:
		return SymbolX
	default:
		return SymbolNone
	}
}

// BoardCells is the number of cells on the 3x3 grid
const BoardCells = 9

// Board is the 3x3 grid in row-major order. SymbolNone marks an empty cell.
type Board [BoardCells]Symbol

// IsValidIndex returns true if the index addresses a cell
func (b Board) IsValidIndex(index int) bool {
	return index >= 0 && index < BoardCells
}

// IsEmpty returns true if the cell at index is unoccupied
func (b Board) IsEmpty(index int) bool {
	return b.IsValidIndex(index) && b[index] == SymbolNone
}

// IsFull returns true if every cell is occupied
func (b Board) IsFull() bool {
	for _, cell := range b {
		if cell == SymbolNone {
			return false
		}
	}
	return true
}
