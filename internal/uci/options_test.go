package uci

import "testing"

func TestIntUciOptionSetValueRange(t *testing.T) {
	o := IntUciOption{OptName: "Hash", Value: 4, Min: 1, Max: 512}
	if err := o.SetValue("128"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if o.Value != 128 {
		t.Fatalf("Value = %d, want 128", o.Value)
	}
	if err := o.SetValue("99999"); err == nil {
		t.Fatalf("SetValue should reject a value above Max")
	}
	if err := o.SetValue("not-a-number"); err == nil {
		t.Fatalf("SetValue should reject a non-numeric value")
	}
}

func TestBoolUciOptionSetValue(t *testing.T) {
	o := BoolUciOption{OptName: "AggressiveCaching", Value: false}
	if err := o.SetValue("true"); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if !o.Value {
		t.Fatalf("Value = false, want true")
	}
	if err := o.SetValue("maybe"); err == nil {
		t.Fatalf("SetValue should reject a non-boolean token")
	}
}

func TestUCIStringFormat(t *testing.T) {
	i := IntUciOption{OptName: "Threads", Value: 2, Min: 1, Max: 8}
	if got, want := i.UCIString(), "option name Threads type spin default 2 min 1 max 8"; got != want {
		t.Fatalf("UCIString() = %q, want %q", got, want)
	}
	b := BoolUciOption{OptName: "AggressiveCaching", Value: true}
	if got, want := b.UCIString(), "option name AggressiveCaching type check default true"; got != want {
		t.Fatalf("UCIString() = %q, want %q", got, want)
	}
}
