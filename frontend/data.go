// Package frontend carries feature vectors and stream markers through a
// pull-based chain of processing stages.
package frontend

import "fmt"

// Kind tags the payload a Data item carries.
type Kind uint8

const (
	// KindVector carries one feature vector in Values.
	KindVector Kind = iota
	// KindEndOfStream marks the end of one logical stream (an utterance).
	KindEndOfStream
	// KindSignal is any other control item; stages pass it through.
	KindSignal
)

func (k Kind) String() string {
	switch k {
	case KindVector:
		return "vector"
	case KindEndOfStream:
		return "end-of-stream"
	case KindSignal:
		return "signal"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Data is one item flowing between stages.
type Data struct {
	Kind   Kind
	Values []float64 // KindVector only
	Signal string    // KindSignal only
}

// Vector wraps values. The item shares storage with values.
func Vector(values []float64) Data {
	return Data{Kind: KindVector, Values: values}
}

// EndOfStream returns an end-of-stream marker.
func EndOfStream() Data {
	return Data{Kind: KindEndOfStream}
}

// Signal returns a pass-through control item.
func Signal(name string) Data {
	return Data{Kind: KindSignal, Signal: name}
}

func (d Data) String() string {
	switch d.Kind {
	case KindVector:
		return fmt.Sprintf("vector%v", d.Values)
	case KindSignal:
		return "signal(" + d.Signal + ")"
	}
	return d.Kind.String()
}
