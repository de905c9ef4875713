// Package loader reads program and ROM images for the 8088 core.
package loader

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// MaxFlatSize is the largest flat program image: one full 64 KiB segment.
// Execution starts at offset 0 and IP cannot address past the segment end.
const MaxFlatSize = 64 * 1024

// MaxImageSize is the largest address an image byte may occupy: the top of
// the 1 MiB physical address space.
const MaxImageSize = 1 << 20

// DefaultSegment is the load segment used when the caller does not pick
// one. Paragraph 0x0100 keeps the image clear of the interrupt vector
// table and the BIOS data area.
const DefaultSegment uint16 = 0x0100

// Program represents a loaded flat binary ready for placement.
type Program struct {
	// Segment is the paragraph the image is placed at. The first byte
	// lands at physical Segment<<4 and execution starts at Segment:0000.
	Segment uint16

	// Data contains the raw machine code.
	Data []byte
}

// Chunk is one contiguous run of bytes decoded from an Intel HEX image.
type Chunk struct {
	// Addr is the physical load address of the first byte.
	Addr uint32

	// Data contains the chunk contents.
	Data []byte
}

// HexImage is a decoded Intel HEX file.
type HexImage struct {
	// Chunks holds the data records merged into contiguous runs, in
	// file order.
	Chunks []Chunk

	// StartCS and StartIP hold the CS:IP entry from a start-segment
	// record when the image carries one.
	StartCS uint16
	StartIP uint16

	// HasStart reports whether a start-segment record was seen.
	HasStart bool
}

// LoadFlat reads a raw binary image from disk. The image is headerless
// 8088 machine code; execution starts at its first byte.
func LoadFlat(path string, segment uint16) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program image: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("program image %s is empty", path)
	}
	if len(data) > MaxFlatSize {
		return nil, fmt.Errorf("program image of %d bytes exceeds a 64 KiB segment", len(data))
	}

	return &Program{Segment: segment, Data: data}, nil
}

// LoadROM reads a BIOS ROM image from disk. Placement against the top of
// the address space is the emulator's job; the loader only checks shape.
func LoadROM(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rom image: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("rom image %s is empty", path)
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("rom image of %d bytes exceeds the 1 MiB address space", len(data))
	}

	return data, nil
}

// Intel HEX record types understood by LoadHex. Linear (32-bit) record
// types postdate the 8086 tool chain and are rejected.
const (
	recordData         = 0x00
	recordEOF          = 0x01
	recordExtSegment   = 0x02
	recordStartSegment = 0x03
)

// LoadHex parses an Intel HEX image from disk. Data records accumulate
// into chunks at base+offset, extended-segment records move the base, and
// a start-segment record supplies the CS:IP entry point. The image must
// end with an end-of-file record.
func LoadHex(path string) (*HexImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hex image: %w", err)
	}
	defer func() { _ = f.Close() }()

	img := &HexImage{}
	base := uint32(0)
	sawEOF := false

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if sawEOF {
			return nil, fmt.Errorf("hex image line %d: record after end-of-file record", lineNo)
		}
		if line[0] != ':' {
			return nil, fmt.Errorf("hex image line %d: missing ':' start code", lineNo)
		}

		record, err := hex.DecodeString(line[1:])
		if err != nil {
			return nil, fmt.Errorf("hex image line %d: %w", lineNo, err)
		}
		if len(record) < 5 {
			return nil, fmt.Errorf("hex image line %d: truncated record", lineNo)
		}

		count := int(record[0])
		if len(record) != 5+count {
			return nil, fmt.Errorf("hex image line %d: record length %d does not match count %d",
				lineNo, len(record), count)
		}

		sum := byte(0)
		for _, b := range record {
			sum += b
		}
		if sum != 0 {
			return nil, fmt.Errorf("hex image line %d: checksum mismatch", lineNo)
		}

		offset := uint32(record[1])<<8 | uint32(record[2])
		data := record[4 : 4+count]

		switch record[3] {
		case recordData:
			addr := base + offset
			if uint64(addr)+uint64(count) > MaxImageSize {
				return nil, fmt.Errorf("hex image line %d: address 0x%X beyond the 1 MiB address space",
					lineNo, addr)
			}
			img.appendData(addr, data)

		case recordEOF:
			if count != 0 {
				return nil, fmt.Errorf("hex image line %d: end-of-file record carries data", lineNo)
			}
			sawEOF = true

		case recordExtSegment:
			if count != 2 {
				return nil, fmt.Errorf("hex image line %d: extended-segment record needs 2 data bytes", lineNo)
			}
			base = (uint32(data[0])<<8 | uint32(data[1])) << 4

		case recordStartSegment:
			if count != 4 {
				return nil, fmt.Errorf("hex image line %d: start-segment record needs 4 data bytes", lineNo)
			}
			img.StartCS = uint16(data[0])<<8 | uint16(data[1])
			img.StartIP = uint16(data[2])<<8 | uint16(data[3])
			img.HasStart = true

		default:
			return nil, fmt.Errorf("hex image line %d: unsupported record type 0x%02X", lineNo, record[3])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read hex image: %w", err)
	}

	if !sawEOF {
		return nil, fmt.Errorf("hex image %s: missing end-of-file record", path)
	}

	return img, nil
}

// appendData grows the last chunk when the record continues it, otherwise
// starts a new chunk.
func (img *HexImage) appendData(addr uint32, data []byte) {
	if n := len(img.Chunks); n > 0 {
		last := &img.Chunks[n-1]
		if last.Addr+uint32(len(last.Data)) == addr {
			last.Data = append(last.Data, data...)
			return
		}
	}
	chunk := Chunk{Addr: addr, Data: append([]byte(nil), data...)}
	img.Chunks = append(img.Chunks, chunk)
}
