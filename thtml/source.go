package thtml

import (
	"bufio"
	"io"
)

const eof = -1

// posRune is a character together with the position it was read at.
type posRune struct {
	r  rune
	at Span
}

// input pulls characters from the source, normalizes line endings and tracks
// positions. Characters pushed back are replayed before the source is read again.
type input struct {
	src  io.RuneScanner
	back []posRune
	pos  Span
	done bool
	err  error
}

func newInput(r io.Reader) *input {
	rs, ok := r.(io.RuneScanner)
	if !ok {
		rs = bufio.NewReader(r)
	}
	return &input{src: rs, pos: Span{Line: 1, Column: 1}}
}

// read returns the next character, or a posRune with r == eof at the end of input.
func (in *input) read() posRune {
	if n := len(in.back); n > 0 {
		pr := in.back[n-1]
		in.back = in.back[:n-1]
		return pr
	}
	if in.done {
		return posRune{r: eof, at: in.pos}
	}
	r, _, err := in.src.ReadRune()
	if err != nil {
		if err != io.EOF {
			in.err = err
		}
		in.done = true
		return posRune{r: eof, at: in.pos}
	}
	at := in.pos
	if r == '\r' {
		// \r\n and a lone \r both become \n
		r2, _, err := in.src.ReadRune()
		if err == nil {
			if r2 == '\n' {
				in.pos.Offset++
			} else {
				_ = in.src.UnreadRune()
			}
		}
		r = '\n'
	}
	in.pos.Offset++
	if r == '\n' {
		in.pos.Line++
		in.pos.Column = 1
	} else {
		in.pos.Column++
	}
	return posRune{r: r, at: at}
}

// unread pushes pr back. Characters are replayed in reverse order of unread calls.
func (in *input) unread(pr posRune) {
	if pr.r == eof {
		return
	}
	in.back = append(in.back, pr)
}

// unreadAll pushes back a run of characters so that they are replayed in order.
func (in *input) unreadAll(prs []posRune) {
	for i := len(prs) - 1; i >= 0; i-- {
		in.unread(prs[i])
	}
}

// here returns the position of the next character.
func (in *input) here() Span {
	if n := len(in.back); n > 0 {
		return in.back[n-1].at
	}
	return in.pos
}
