package processor

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/chai2010/webp"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP1 = 0xE1

	// maxSegmentLen is the largest value a JPEG segment length field can hold.
	maxSegmentLen = 0xFFFF
)

var (
	exifHeader = []byte("Exif\x00\x00")
	pngMagic   = []byte("\x89PNG\r\n\x1a\n")
)

// ExtractMetadata returns the raw EXIF payload of an encoded JPEG, PNG or WebP
// image, or nil when the file carries none.
func ExtractMetadata(data []byte) []byte {
	switch {
	case len(data) > 2 && data[0] == 0xFF && data[1] == markerSOI:
		return jpegExif(data)
	case bytes.HasPrefix(data, pngMagic):
		return pngExif(data)
	case len(data) > 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		meta, err := webp.GetMetadata(data, "EXIF")
		if err != nil || len(meta) == 0 {
			return nil
		}
		return bytes.TrimPrefix(meta, exifHeader)
	default:
		return nil
	}
}

// jpegExif walks the marker segments up to the start of scan looking for an
// APP1 segment with the Exif header.
func jpegExif(data []byte) []byte {
	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			return nil
		}
		marker := data[i+1]
		if marker == 0xFF {
			i++
			continue
		}
		if marker == markerSOS || marker == markerEOI {
			return nil
		}
		// standalone markers carry no length
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}

		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4]))
		end := i + 2 + segLen
		if segLen < 2 || end > len(data) {
			return nil
		}
		payload := data[i+4 : end]
		if marker == markerAPP1 && bytes.HasPrefix(payload, exifHeader) {
			return bytes.Clone(payload[len(exifHeader):])
		}
		i = end
	}
	return nil
}

// pngExif returns the body of the eXIf chunk, if any.
func pngExif(data []byte) []byte {
	i := len(pngMagic)
	for i+8 <= len(data) {
		n := int(binary.BigEndian.Uint32(data[i : i+4]))
		typ := string(data[i+4 : i+8])
		start := i + 8
		end := start + n
		if n < 0 || end+4 > len(data) {
			return nil
		}
		switch typ {
		case "eXIf":
			return bytes.Clone(data[start:end])
		case "IDAT", "IEND":
			// eXIf must precede image data
			return nil
		}
		i = end + 4 // skip CRC
	}
	return nil
}

// embedJPEGExif inserts an APP1 Exif segment right after the SOI marker.
func embedJPEGExif(encoded, exif []byte) ([]byte, error) {
	if len(encoded) < 2 || encoded[0] != 0xFF || encoded[1] != markerSOI {
		return nil, fmt.Errorf("%w: output is not a JPEG stream", ErrEncode)
	}

	segLen := 2 + len(exifHeader) + len(exif)
	if segLen > maxSegmentLen {
		return nil, fmt.Errorf("%w: EXIF data is too long (%d bytes)", ErrEncode, len(exif))
	}

	out := make([]byte, 0, len(encoded)+2+segLen)
	out = append(out, 0xFF, markerSOI, 0xFF, markerAPP1)
	out = binary.BigEndian.AppendUint16(out, uint16(segLen))
	out = append(out, exifHeader...)
	out = append(out, exif...)
	out = append(out, encoded[2:]...)
	return out, nil
}

// embedWebPExif attaches an EXIF chunk to an encoded WebP stream.
func embedWebPExif(encoded, exif []byte) ([]byte, error) {
	out, err := webp.SetMetadata(encoded, exif, "EXIF")
	if err != nil {
		return nil, fmt.Errorf("%w: attach EXIF: %w", ErrEncode, err)
	}
	return out, nil
}
