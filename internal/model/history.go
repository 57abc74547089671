package model

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// fiftyMoveLimit counts half-moves: fifty full moves without a pawn move or capture.
	fiftyMoveLimit  = 100
	repetitionLimit = 3
)

// Signature identifies a position for repetition purposes. Two positions with
// equal signatures have the same legal continuations.
type Signature struct {
	Squares      [64]byte
	Turn         PieceColor
	Castling     CastlingRights
	EnPassant    SimpleMove
	HasEnPassant bool
}

// String is the canonical wire form:
// 64 square letters ('.' for empty) | side to move | six castling flags | en passant move or "-".
func (s Signature) String() string {
	var sb strings.Builder
	sb.Grow(80)
	for _, c := range s.Squares {
		if c == 0 {
			sb.WriteByte('.')
		} else {
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('|')
	if s.Turn == Black {
		sb.WriteByte('b')
	} else {
		sb.WriteByte('w')
	}
	sb.WriteByte('|')
	for _, flag := range s.Castling.flags() {
		if flag {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	sb.WriteByte('|')
	if s.HasEnPassant {
		sb.WriteString(s.EnPassant.String())
	} else {
		sb.WriteByte('-')
	}
	return sb.String()
}

func ParseSignature(str string) (Signature, error) {
	var sig Signature
	parts := strings.Split(str, "|")
	if len(parts) != 4 || len(parts[0]) != 64 || len(parts[2]) != 6 {
		return sig, fmt.Errorf("%w: %q", ErrInvalidSignature, str)
	}
	for i := 0; i < 64; i++ {
		c := parts[0][i]
		if c == '.' {
			continue
		}
		if _, _, ok := pieceFromLetter(c); !ok {
			return sig, fmt.Errorf("%w: bad square letter %q", ErrInvalidSignature, c)
		}
		sig.Squares[i] = c
	}
	switch parts[1] {
	case "w":
		sig.Turn = White
	case "b":
		sig.Turn = Black
	default:
		return sig, fmt.Errorf("%w: bad side to move %q", ErrInvalidSignature, parts[1])
	}
	var flags [6]bool
	for i := range flags {
		switch parts[2][i] {
		case '0':
		case '1':
			flags[i] = true
		default:
			return sig, fmt.Errorf("%w: bad castling flags %q", ErrInvalidSignature, parts[2])
		}
	}
	sig.Castling = castlingFromFlags(flags)
	if parts[3] != "-" {
		if len(parts[3]) != 4 {
			return sig, fmt.Errorf("%w: bad en passant move %q", ErrInvalidSignature, parts[3])
		}
		from, err := ParseSquare(parts[3][:2])
		if err != nil {
			return sig, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		to, err := ParseSquare(parts[3][2:])
		if err != nil {
			return sig, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		sig.EnPassant = SimpleMove{From: from, To: to}
		sig.HasEnPassant = true
	}
	return sig, nil
}

// History tracks the half-move clock and how often each position occurred.
type History struct {
	halfMoveClock int
	positions     map[Signature]int
}

func newHistory() *History {
	return &History{positions: make(map[Signature]int)}
}

// tick advances the half-move clock, or resets it for pawn moves and captures.
func (h *History) tick(reset bool) {
	if reset {
		h.halfMoveClock = 0
		return
	}
	h.halfMoveClock++
}

// Record counts one more occurrence of sig and returns the new total.
func (h *History) Record(sig Signature) int {
	h.positions[sig]++
	return h.positions[sig]
}

func (h *History) Count(sig Signature) int {
	return h.positions[sig]
}

func (h *History) FiftyMoveCounter() int {
	return h.halfMoveClock
}

func (h *History) fiftyMoveReached() bool {
	return h.halfMoveClock >= fiftyMoveLimit
}

// signatures expands the counts into the repeated-string wire form, sorted
// so that equal histories serialize identically.
func (h *History) signatures() []string {
	out := make([]string, 0, len(h.positions))
	for sig, n := range h.positions {
		s := sig.String()
		for i := 0; i < n; i++ {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func (h *History) clone() *History {
	c := &History{halfMoveClock: h.halfMoveClock, positions: make(map[Signature]int, len(h.positions))}
	for sig, n := range h.positions {
		c.positions[sig] = n
	}
	return c
}

// signature captures the current position. The last move only counts when it
// was a double pawn step that a pawn of the side to move can legally take en
// passant.
func (g *Game) signature() Signature {
	sig := Signature{Turn: g.turn, Castling: g.castling}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := g.board[row][col]; p != nil {
				sig.Squares[row*8+col] = fenLetter(*p)
			}
		}
	}
	if lm := g.lastMove; lm != nil && g.enPassantAvailable() {
		sig.EnPassant = *lm
		sig.HasEnPassant = true
	}
	return sig
}

func (g *Game) enPassantAvailable() bool {
	lm := g.lastMove
	if lm == nil {
		return false
	}
	for _, dc := range []int{-1, 1} {
		p := g.board.At(Position{Row: lm.To.Row, Col: lm.To.Col + dc})
		if p == nil || p.Type != Pawn || p.Color != g.turn {
			continue
		}
		target := Position{Row: lm.To.Row + pawnDirection(g.turn), Col: lm.To.Col}
		if g.board.At(target) != nil {
			continue
		}
		if _, ok := enPassantVictim(*p, target, &g.board, lm); ok && !g.leavesKingInCheck(*p, target) {
			return true
		}
	}
	return false
}
