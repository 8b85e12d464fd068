package casestudy

import (
	"testing"

	"schemata/internal/mutation"
)

func TestEverySchemaValidates(t *testing.T) {
	for _, name := range Names() {
		s, err := Lookup(name)
		if err != nil {
			t.Fatalf("Lookup(%s): %v", name, err)
		}
		if len(s.Tables) == 0 {
			t.Fatalf("%s has no tables", name)
		}
		mutants, err := mutation.Generate(s)
		if err != nil {
			t.Fatalf("Generate(%s): %v", name, err)
		}
		if len(mutants) == 0 {
			t.Fatalf("%s yields no mutants", name)
		}
	}
}

func TestLookupReturnsFreshCopies(t *testing.T) {
	a, _ := Lookup("Inventory")
	b, _ := Lookup("inventory")
	if a == b || a.Tables[0] == b.Tables[0] {
		t.Fatalf("Lookup shares schema state")
	}
}

func TestLookupUnknown(t *testing.T) {
	if _, err := Lookup("payroll"); err == nil {
		t.Fatalf("expected error")
	}
}
