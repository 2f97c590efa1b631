// pkg/container/format.go

package container

import (
	"encoding/binary"

	cerr "github.com/cockroachdb/errors"
)

// Container wire format:
//
//	MAGIC (10 bytes) | nonce_len (1 byte) | nonce | AES-GCM ciphertext
//
// Decrypted plaintext is a flat sequence of records:
//
//	name_len (2 bytes, big-endian) | name (UTF-8) | data_len (8 bytes, big-endian) | data
//
// Records are append-only; duplicate names are permitted and all are retained.
const Magic = "LETHECNT01"

// NonceSize is the AES-GCM nonce length. A fresh random nonce is drawn for
// every seal; nonce reuse under one key voids confidentiality and integrity.
const NonceSize = 12

// Record is one named entry in a container's plaintext.
type Record struct {
	Name string
	Data []byte
}

// ErrCorruptRecord is returned when a length prefix is inconsistent with the
// remaining plaintext.
var ErrCorruptRecord = cerr.New("corrupt container record")

// appendRecord encodes a record onto the plaintext.
func appendRecord(plaintext []byte, name string, data []byte) ([]byte, error) {
	nameBytes := []byte(name)
	if len(nameBytes) > 0xFFFF {
		return nil, cerr.Newf("record name too long: %d bytes", len(nameBytes))
	}

	out := make([]byte, 0, len(plaintext)+2+len(nameBytes)+8+len(data))
	out = append(out, plaintext...)
	out = binary.BigEndian.AppendUint16(out, uint16(len(nameBytes)))
	out = append(out, nameBytes...)
	out = binary.BigEndian.AppendUint64(out, uint64(len(data)))
	out = append(out, data...)
	return out, nil
}

// parseRecords decodes every record in the plaintext, in order.
func parseRecords(plaintext []byte) ([]Record, error) {
	var records []Record
	idx := 0

	for idx < len(plaintext) {
		if len(plaintext)-idx < 2 {
			return nil, cerr.Wrapf(ErrCorruptRecord, "truncated name length at offset %d", idx)
		}
		nameLen := int(binary.BigEndian.Uint16(plaintext[idx:]))
		idx += 2

		if len(plaintext)-idx < nameLen {
			return nil, cerr.Wrapf(ErrCorruptRecord, "name length %d exceeds remaining %d", nameLen, len(plaintext)-idx)
		}
		name := string(plaintext[idx : idx+nameLen])
		idx += nameLen

		if len(plaintext)-idx < 8 {
			return nil, cerr.Wrapf(ErrCorruptRecord, "truncated data length at offset %d", idx)
		}
		dataLen := binary.BigEndian.Uint64(plaintext[idx:])
		idx += 8

		if dataLen > uint64(len(plaintext)-idx) {
			return nil, cerr.Wrapf(ErrCorruptRecord, "data length %d exceeds remaining %d", dataLen, len(plaintext)-idx)
		}
		data := make([]byte, dataLen)
		copy(data, plaintext[idx:idx+int(dataLen)])
		idx += int(dataLen)

		records = append(records, Record{Name: name, Data: data})
	}

	return records, nil
}
