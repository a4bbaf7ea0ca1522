package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const recordFormatVersionCurrent = 1

const maxFieldLen = math.MaxUint16

// Encode serializes a [Record] into the compact binary backup format:
// a version byte followed by four uint16-length-prefixed strings and the
// big-endian expiry. Access tokens routinely exceed 255 bytes, hence
// two-byte lengths.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(recordFormatVersionCurrent)

	for _, field := range []string{r.AccessToken, r.RefreshToken, r.UserID, r.UserRole} {
		if len(field) > maxFieldLen {
			return nil, errors.New("record field too long")
		}
		var lenBytes [2]byte
		binary.BigEndian.PutUint16(lenBytes[:], uint16(len(field)))
		buf.Write(lenBytes[:])
		buf.WriteString(field)
	}

	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses the binary backup format produced by [Encode].
func Decode(data []byte) (*Record, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("invalid record version")
	}

	r := &Record{}
	fields := []*string{&r.AccessToken, &r.RefreshToken, &r.UserID, &r.UserRole}
	for _, field := range fields {
		var lenBytes [2]byte
		if _, err := io.ReadFull(reader, lenBytes[:]); err != nil {
			return nil, err
		}
		value := make([]byte, binary.BigEndian.Uint16(lenBytes[:]))
		if _, err := io.ReadFull(reader, value); err != nil {
			return nil, err
		}
		*field = string(value)
	}

	if err := binary.Read(reader, binary.BigEndian, &r.ExpiresAt); err != nil {
		return nil, err
	}
	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes in record")
	}
	if r.AccessToken != "" && r.ExpiresAt == 0 {
		return nil, errors.New("record missing expiry")
	}

	return r, nil
}
