package domain

// Zero overwrites each of the given buffers with zeros. Raw key bytes are cleared
// with it once they have been handed to a cipher or encoded.
func Zero(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}
