package isa

import (
	"fmt"
	"strings"
)

// Form is the operand form of an instruction, the suffix of its assembly mnemonic.
type Form uint8

const (
	FormVV Form = iota // vector-vector
	FormVX             // vector-scalar
	FormVI             // vector-immediate
	FormWV             // wide vs2, vector shift
	FormWI             // wide vs2, immediate shift
	FormVS             // reduction: vector, scalar element vs1[0]
	FormMM             // mask-mask
	FormM              // unary on a mask register
	FormV              // unary on a vector register, or no vector source
	FormVM             // vector source selected by a mask register
	formCount
)

var formNames = [formCount]string{"vv", "vx", "vi", "wv", "wi", "vs", "mm", "m", "v", "vm"}

func (f Form) String() string {
	if f >= formCount {
		return fmt.Sprintf("form(%d)", uint8(f))
	}
	return formNames[f]
}

func (f Form) MarshalText() ([]byte, error) {
	if f >= formCount {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedForm, uint8(f))
	}
	return []byte(f.String()), nil
}

func (f *Form) UnmarshalText(text []byte) error {
	v, err := ParseForm(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseForm parses a lowercase or uppercase form suffix.
func ParseForm(v string) (Form, error) {
	v = strings.ToLower(strings.TrimPrefix(v, "."))
	for i, name := range formNames {
		if name == v {
			return Form(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedForm, v)
}

// Immediate reports whether the operand field holds a 5-bit immediate.
func (f Form) Immediate() bool {
	return f == FormVI || f == FormWI
}

// Scalar reports whether the operand field names a scalar register.
func (f Form) Scalar() bool {
	return f == FormVX
}

// Unary reports whether the vs1 field is a fixed selector rather than an operand.
func (f Form) Unary() bool {
	return f == FormM || f == FormV
}

// FormSet is a bitset of forms.
type FormSet uint16

func Forms(forms ...Form) FormSet {
	var s FormSet
	for _, f := range forms {
		s |= 1 << f
	}
	return s
}

func (s FormSet) Has(f Form) bool {
	return f < formCount && s&(1<<f) != 0
}

// List returns the forms of the set in declaration order.
func (s FormSet) List() []Form {
	var out []Form
	for f := Form(0); f < formCount; f++ {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

func (s FormSet) String() string {
	names := make([]string, 0, formCount)
	for _, f := range s.List() {
		names = append(names, f.String())
	}
	return strings.Join(names, ",")
}
