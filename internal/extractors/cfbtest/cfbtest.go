// Package cfbtest writes minimal compound binary files for extractor tests.
package cfbtest

import (
	"encoding/binary"
	"unicode/utf16"
)

const (
	sectorSize = 512
	miniCutoff = 4096

	freeSect   = 0xFFFFFFFF
	endOfChain = 0xFFFFFFFE
	fatSect    = 0xFFFFFFFD
	noStream   = 0xFFFFFFFF
)

// Stream is a named stream placed directly under the root storage.
type Stream struct {
	Name string
	Data []byte
}

// Build returns a version 3 compound file holding the given streams.
// Streams shorter than the mini stream cutoff are zero-padded so that
// every stream lives in regular sectors.
func Build(streams ...Stream) []byte {
	padded := make([][]byte, len(streams))
	dataSectors := 0
	for i, s := range streams {
		d := s.Data
		if len(d) < miniCutoff {
			d = append(append([]byte(nil), d...), make([]byte, miniCutoff-len(d))...)
		}
		padded[i] = d
		dataSectors += (len(d) + sectorSize - 1) / sectorSize
	}

	entries := len(streams) + 1
	dirSectors := (entries + 3) / 4
	// Sector 0 is the FAT, then the directory, then stream data.
	total := 1 + dirSectors + dataSectors
	if total > sectorSize/4 {
		panic("cfbtest: streams too large for a single FAT sector")
	}

	fat := make([]uint32, sectorSize/4)
	for i := range fat {
		fat[i] = freeSect
	}
	fat[0] = fatSect
	for i := 1; i <= dirSectors; i++ {
		fat[i] = uint32(i + 1)
	}
	fat[dirSectors] = endOfChain

	starts := make([]uint32, len(streams))
	next := 1 + dirSectors
	for i, d := range padded {
		n := (len(d) + sectorSize - 1) / sectorSize
		starts[i] = uint32(next)
		for j := 0; j < n; j++ {
			if j == n-1 {
				fat[next+j] = endOfChain
			} else {
				fat[next+j] = uint32(next + j + 1)
			}
		}
		next += n
	}

	out := make([]byte, sectorSize*(1+total))
	le := binary.LittleEndian

	h := out[:sectorSize]
	copy(h, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(h[0x18:], 0x003E)
	le.PutUint16(h[0x1A:], 0x0003)
	le.PutUint16(h[0x1C:], 0xFFFE)
	le.PutUint16(h[0x1E:], 9)
	le.PutUint16(h[0x20:], 6)
	le.PutUint32(h[0x2C:], 1)
	le.PutUint32(h[0x30:], 1)
	le.PutUint32(h[0x38:], miniCutoff)
	le.PutUint32(h[0x3C:], endOfChain)
	le.PutUint32(h[0x44:], endOfChain)
	le.PutUint32(h[0x4C:], 0)
	for i := 1; i < 109; i++ {
		le.PutUint32(h[0x4C+4*i:], freeSect)
	}

	sector := func(n int) []byte {
		off := sectorSize * (n + 1)
		return out[off : off+sectorSize]
	}

	fs := sector(0)
	for i, v := range fat {
		le.PutUint32(fs[4*i:], v)
	}

	dir := make([]byte, dirSectors*sectorSize)
	for i := 0; i < dirSectors*4; i++ {
		e := dir[i*128 : (i+1)*128]
		le.PutUint32(e[0x44:], noStream)
		le.PutUint32(e[0x48:], noStream)
		le.PutUint32(e[0x4C:], noStream)
	}
	writeEntry(dir[0:128], "Root Entry", 5, endOfChain, 0)
	if len(streams) > 0 {
		le.PutUint32(dir[0x4C:], 1)
	}
	for i, s := range streams {
		e := dir[(i+1)*128 : (i+2)*128]
		writeEntry(e, s.Name, 2, starts[i], len(padded[i]))
		if i+1 < len(streams) {
			le.PutUint32(e[0x48:], uint32(i+2))
		}
	}
	for i := 0; i < dirSectors; i++ {
		copy(sector(1+i), dir[i*sectorSize:(i+1)*sectorSize])
	}

	for i, d := range padded {
		off := sectorSize * (int(starts[i]) + 1)
		copy(out[off:], d)
	}
	return out
}

func writeEntry(e []byte, name string, typ byte, start uint32, size int) {
	le := binary.LittleEndian
	u := utf16.Encode([]rune(name))
	for i, c := range u {
		le.PutUint16(e[2*i:], c)
	}
	le.PutUint16(e[0x40:], uint16(2*(len(u)+1)))
	e[0x42] = typ
	e[0x43] = 1
	le.PutUint32(e[0x74:], start)
	le.PutUint32(e[0x78:], uint32(size))
}
