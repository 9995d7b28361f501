package curriculum

import (
	"crypto/rand"
	"math/big"
)

// Join codes are short, human-shareable tokens; 36^8 keeps the collision
// probability low enough that the regenerate-on-duplicate loop in Create
// rarely runs twice.
const (
	codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeLength   = 8
)

var codeGenFunc = generateCode // mockable

func generateCode() string {
	max := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err) // crypto/rand is broken; nothing sensible to do
		}
		code[i] = codeAlphabet[n.Int64()]
	}
	return string(code)
}
