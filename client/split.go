package client

import "math/rand/v2"

// Split cuts msg into consecutive chunks whose sizes are drawn uniformly
// from 1..remaining. The chunks share msg's backing array and concatenate
// back to msg.
func Split(msg []byte, rng *rand.Rand) [][]byte {
	var chunks [][]byte
	for len(msg) > 0 {
		n := rng.IntN(len(msg)) + 1
		chunks = append(chunks, msg[:n])
		msg = msg[n:]
	}
	return chunks
}
