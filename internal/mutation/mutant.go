// Package mutation produces faulty variants of a schema.
package mutation

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"schemata/internal/schema"
)

// Mutant wraps a mutated artefact. ID is assigned once and never changes.
type Mutant[T any] struct {
	ID          int
	Artefact    T
	Operator    string
	Description string
}

// Prefix is the table-name prefix that gives a mutant its own namespace.
func (m Mutant[T]) Prefix() string {
	return fmt.Sprintf("mutant_%d_", m.ID)
}

func (m Mutant[T]) String() string {
	return fmt.Sprintf("#%d %s: %s", m.ID, m.Operator, m.Description)
}

// Variant is one operator output before numbering.
type Variant struct {
	Schema      *schema.Schema
	Description string
}

// Operator derives variants from a schema without modifying it.
type Operator func(s *schema.Schema) []Variant

type registration struct {
	name string
	op   Operator
}

// registry lists operators in application order.
var registry = []registration{
	{"CCR", checkRemoval},
	{"CROR", checkRelationalReplacement},
	{"NNCA", notNullAddition},
	{"NNCR", notNullRemoval},
	{"UCA", uniqueAddition},
	{"UCR", uniqueRemoval},
	{"PKCA", primaryKeyColumnAddition},
	{"PKCR", primaryKeyColumnRemoval},
	{"FKCR", foreignKeyRemoval},
}

// Operators lists the registered operator names.
func Operators() []string {
	out := make([]string, len(registry))
	for i, r := range registry {
		out[i] = r.name
	}
	return out
}

// Generate applies the named operators, or all of them when names is empty,
// and numbers the mutants from 1.
func Generate(s *schema.Schema, names ...string) ([]Mutant[*schema.Schema], error) {
	selected := registry
	if len(names) > 0 {
		selected = nil
		for _, name := range names {
			reg, ok := lookup(name)
			if !ok {
				return nil, errors.Errorf("unknown mutation operator %q (known: %s)", name, strings.Join(Operators(), ", "))
			}
			selected = append(selected, reg)
		}
	}
	var out []Mutant[*schema.Schema]
	for _, reg := range selected {
		for _, v := range reg.op(s) {
			out = append(out, Mutant[*schema.Schema]{
				ID:          len(out) + 1,
				Artefact:    v.Schema,
				Operator:    reg.name,
				Description: v.Description,
			})
		}
	}
	return out, nil
}

func lookup(name string) (registration, bool) {
	for _, r := range registry {
		if strings.EqualFold(r.name, name) {
			return r, true
		}
	}
	return registration{}, false
}
