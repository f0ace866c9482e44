package ingest

import "fmt"

// Word is one received character as a UART data register reports it: the data byte
// in the low 8 bits and the line error flags above it.
type Word uint32

// Line error flags.
const (
	FlagFraming Word = 1 << (8 + iota)
	FlagParity
	FlagBreak
	FlagOverrun

	errorMask = FlagFraming | FlagParity | FlagBreak | FlagOverrun
)

// Sentinel starts a new frame.
const Sentinel byte = 0xFF

// DataWord returns an error free word carrying b.
func DataWord(b byte) Word {
	return Word(b)
}

// Data returns the received byte.
func (w Word) Data() byte {
	return byte(w)
}

// Err reports whether the line flagged the byte as corrupted.
func (w Word) Err() bool {
	return w&errorMask != 0
}

func (w Word) String() string {
	s := fmt.Sprintf("%#02x", w.Data())
	for _, f := range []struct {
		flag Word
		name string
	}{{FlagFraming, "FE"}, {FlagParity, "PE"}, {FlagBreak, "BE"}, {FlagOverrun, "OE"}} {
		if w&f.flag != 0 {
			s += "|" + f.name
		}
	}
	return s
}
