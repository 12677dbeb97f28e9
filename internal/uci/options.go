// Package uci implements a minimal but real UCI protocol loop over
// stdin/stdout, plus the option types the loop reports through "uci".
// Option shapes follow ChizhovVadim-CounterGo's IntUciOption/
// BoolUciOption.
package uci

import (
	"fmt"
	"strconv"
)

// UciOption is one configurable engine parameter, reported to a GUI
// via "option name ... type ... " and set back via "setoption name ...
// value ...".
type UciOption interface {
	UCIString() string
	Name() string
	SetValue(s string) error
}

// IntUciOption is a bounded integer option (Hash, Threads, ...).
type IntUciOption struct {
	OptName string
	Value   int
	Min     int
	Max     int
}

func (o *IntUciOption) Name() string { return o.OptName }

func (o *IntUciOption) UCIString() string {
	return fmt.Sprintf("option name %s type spin default %d min %d max %d", o.OptName, o.Value, o.Min, o.Max)
}

func (o *IntUciOption) SetValue(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("uci: option %s: %w", o.OptName, err)
	}
	if v < o.Min || v > o.Max {
		return fmt.Errorf("uci: option %s: %d out of range [%d,%d]", o.OptName, v, o.Min, o.Max)
	}
	o.Value = v
	return nil
}

// BoolUciOption is an on/off engine switch (AggressiveCaching, ...).
type BoolUciOption struct {
	OptName string
	Value   bool
}

func (o *BoolUciOption) Name() string { return o.OptName }

func (o *BoolUciOption) UCIString() string {
	return fmt.Sprintf("option name %s type check default %t", o.OptName, o.Value)
}

func (o *BoolUciOption) SetValue(s string) error {
	switch s {
	case "true":
		o.Value = true
	case "false":
		o.Value = false
	default:
		return fmt.Errorf("uci: option %s: %q is not true/false", o.OptName, s)
	}
	return nil
}
