package tfrecord

import (
	"bufio"
	"encoding/binary"
	"hash/crc32"
	"os"
)

const WRITER_BUF_SZ = 1024 * 1024

// TFRecord checksum masking constant.
const maskDelta = 0xa282ead8

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// maskedCRC computes the TFRecord checksum: CRC32-C rotated right by 15 bits
// plus a fixed delta.
func maskedCRC(data []byte) uint32 {
	crc := crc32.Checksum(data, castagnoli)
	return ((crc >> 15) | (crc << 17)) + maskDelta
}

// Writer appends framed records to a container file. Each record is a
// little-endian uint64 payload length, the masked CRC of the length bytes,
// the payload, and the masked CRC of the payload.
//
// Records stream to a temporary file in the target directory; the container
// only becomes visible at its final path after a successful Close, so a
// failed run never leaves a partial file behind.
type Writer struct {
	file    *os.File
	buf     *bufio.Writer
	path    string
	records int
	written int64
}

func NewWriter(path string) (*Writer, error) {
	file, err := os.OpenFile(path+".tmp",
		os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	return &Writer{
		file: file,
		buf:  bufio.NewWriterSize(file, WRITER_BUF_SZ),
		path: path,
	}, nil
}

// Write frames one serialized payload.
func (w *Writer) Write(payload []byte) error {
	var header [12]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(len(payload)))
	binary.LittleEndian.PutUint32(header[8:], maskedCRC(header[:8]))
	if _, err := w.buf.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.buf.Write(payload); err != nil {
		return err
	}
	var footer [4]byte
	binary.LittleEndian.PutUint32(footer[:], maskedCRC(payload))
	if _, err := w.buf.Write(footer[:]); err != nil {
		return err
	}
	w.records += 1
	w.written += int64(len(payload)) + 16
	return nil
}

// WriteExample serializes and frames one example.
func (w *Writer) WriteExample(ex *Example) error {
	return w.Write(ex.Marshal())
}

// Close flushes buffered records and renames the temporary file into place.
// On any failure the temporary file is removed and nothing appears at the
// final path.
func (w *Writer) Close() error {
	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	if flushErr != nil || closeErr != nil {
		os.Remove(w.file.Name())
		if flushErr != nil {
			return flushErr
		}
		return closeErr
	}
	return os.Rename(w.file.Name(), w.path)
}

// Abort discards everything written so far.
func (w *Writer) Abort() {
	w.file.Close()
	os.Remove(w.file.Name())
}

func (w *Writer) Records() int {
	return w.records
}

func (w *Writer) BytesWritten() int64 {
	return w.written
}
