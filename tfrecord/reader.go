package tfrecord

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Reader iterates the records of a container file. The file is mapped rather
// than read into memory, the same access pattern bulk training consumers
// use. Both checksums of every record are validated.
type Reader struct {
	file *os.File
	data mmap.MMap
	off  int
}

func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	reader := &Reader{file: file}
	// Zero-length files cannot be mapped; leave the window empty.
	if stat.Size() > 0 {
		reader.data, err = mmap.Map(file, mmap.RDONLY, 0)
		if err != nil {
			file.Close()
			return nil, err
		}
	}
	return reader, nil
}

// Next returns the next record payload, or nil once the container is
// exhausted. The returned slice aliases the mapping and is only valid until
// Close.
func (r *Reader) Next() ([]byte, error) {
	if r.off == len(r.data) {
		return nil, nil
	}
	if len(r.data)-r.off < 12 {
		return nil, fmt.Errorf(
			"tfrecord: truncated record header at offset %d", r.off)
	}
	header := r.data[r.off : r.off+8]
	if binary.LittleEndian.Uint32(r.data[r.off+8:r.off+12]) !=
		maskedCRC(header) {
		return nil, fmt.Errorf(
			"tfrecord: header checksum mismatch at offset %d", r.off)
	}
	length := int(binary.LittleEndian.Uint64(header))
	start := r.off + 12
	if len(r.data)-start < length+4 {
		return nil, fmt.Errorf(
			"tfrecord: truncated record payload at offset %d", r.off)
	}
	payload := r.data[start : start+length]
	if binary.LittleEndian.Uint32(r.data[start+length:start+length+4]) !=
		maskedCRC(payload) {
		return nil, fmt.Errorf(
			"tfrecord: payload checksum mismatch at offset %d", r.off)
	}
	r.off = start + length + 4
	return payload, nil
}

// NextExample returns the next decoded example, or nil at end of container.
func (r *Reader) NextExample() (*Example, error) {
	payload, err := r.Next()
	if err != nil || payload == nil {
		return nil, err
	}
	return Unmarshal(payload)
}

func (r *Reader) Close() error {
	var unmapErr error
	if r.data != nil {
		unmapErr = r.data.Unmap()
	}
	closeErr := r.file.Close()
	if unmapErr != nil {
		return unmapErr
	}
	return closeErr
}
