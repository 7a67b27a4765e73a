package codec

import (
	"fmt"

	"github.com/aretw0/breadboard/pkg/domain"
)

// filler returns the byte inserted after character i of the base64 text.
func filler(i int) byte {
	if i%2 == 0 {
		return '0'
	}
	return '1'
}

// scramble interleaves a '0' after every even-indexed character and a '1'
// after every odd-indexed one. It is a file signature, not a cipher.
func scramble(text []byte) []byte {
	out := make([]byte, 0, 2*len(text))
	for i, b := range text {
		out = append(out, b, filler(i))
	}
	return out
}

// unscramble inverts scramble and rejects text that does not carry the
// exact filler pattern.
func unscramble(data []byte) ([]byte, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: odd payload length %d", domain.ErrFormat, len(data))
	}
	out := make([]byte, len(data)/2)
	for i := range out {
		if data[2*i+1] != filler(i) {
			return nil, fmt.Errorf("%w: bad filler at offset %d", domain.ErrFormat, 2*i+1)
		}
		out[i] = data[2*i]
	}
	return out, nil
}
