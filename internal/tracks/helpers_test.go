package tracks_test

import "encoding/binary"

// id3v2 builds a minimal ID3v2.3 tag carrying artist, album, and title frames,
// enough for the tag reader without any audio frames behind it.
func id3v2(artist, album, title string) []byte {
	frame := func(id, text string) []byte {
		body := append([]byte{0x00}, []byte(text)...) // ISO-8859-1 encoding marker
		encoded := []byte(id)
		size := make([]byte, 4)
		binary.BigEndian.PutUint32(size, uint32(len(body)))
		encoded = append(encoded, size...)
		encoded = append(encoded, 0x00, 0x00)
		return append(encoded, body...)
	}

	var frames []byte
	frames = append(frames, frame("TPE1", artist)...)
	frames = append(frames, frame("TALB", album)...)
	frames = append(frames, frame("TIT2", title)...)

	header := []byte{'I', 'D', '3', 0x03, 0x00, 0x00}
	size := len(frames)
	header = append(header,
		byte(size>>21&0x7f),
		byte(size>>14&0x7f),
		byte(size>>7&0x7f),
		byte(size&0x7f),
	)
	return append(header, frames...)
}
