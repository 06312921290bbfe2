package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strconv"
)

// encoder writes the frames of one utterance.
type encoder interface {
	Utterance(index int, path string, feats [][]float64) error
}

func newEncoder(format string, w *bufio.Writer) (encoder, error) {
	switch format {
	case "text":
		return &textEncoder{w: w}, nil
	case "jsonl":
		return &jsonlEncoder{enc: json.NewEncoder(w)}, nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// textEncoder writes one space-separated frame per line and a blank line
// between utterances.
type textEncoder struct {
	w   *bufio.Writer
	buf []byte
}

func (e *textEncoder) Utterance(index int, _ string, feats [][]float64) error {
	if index > 0 {
		if err := e.w.WriteByte('\n'); err != nil {
			return err
		}
	}
	for _, v := range feats {
		e.buf = e.buf[:0]
		for j, x := range v {
			if j > 0 {
				e.buf = append(e.buf, ' ')
			}
			e.buf = strconv.AppendFloat(e.buf, x, 'f', 6, 64)
		}
		e.buf = append(e.buf, '\n')
		if _, err := e.w.Write(e.buf); err != nil {
			return err
		}
	}
	return nil
}

type frameRecord struct {
	Utterance int       `json:"utterance"`
	File      string    `json:"file"`
	Frame     int       `json:"frame"`
	Values    []float64 `json:"values"`
}

// jsonlEncoder writes one JSON object per frame.
type jsonlEncoder struct {
	enc *json.Encoder
}

func (e *jsonlEncoder) Utterance(index int, path string, feats [][]float64) error {
	for t, v := range feats {
		if err := e.enc.Encode(frameRecord{Utterance: index, File: path, Frame: t, Values: v}); err != nil {
			return err
		}
	}
	return nil
}
