package plexilval

import "encoding/json"

// wireArray is the serializable form of an Array.
type wireArray struct {
	ElemType ValueType `json:"elem_type"`
	Known    []bool    `json:"known"`
	Bools    []bool    `json:"bools,omitempty"`
	Ints     []int32   `json:"ints,omitempty"`
	Reals    []float64 `json:"reals,omitempty"`
	Strs     []string  `json:"strs,omitempty"`
}

func (a *Array) toWire() *wireArray {
	if a == nil {
		return nil
	}
	return &wireArray{
		ElemType: a.elemType,
		Known:    append([]bool(nil), a.known...),
		Bools:    append([]bool(nil), a.bools...),
		Ints:     append([]int32(nil), a.ints...),
		Reals:    append([]float64(nil), a.reals...),
		Strs:     append([]string(nil), a.strs...),
	}
}

func fromWireArray(w *wireArray) *Array {
	if w == nil {
		return nil
	}
	a := &Array{elemType: w.ElemType, known: w.Known}
	a.bools = w.Bools
	a.ints = w.Ints
	a.reals = w.Reals
	a.strs = w.Strs
	return a
}

// MarshalJSON implements json.Marshaler, satisfying the §8 round-trip law.
func (v Value) MarshalJSON() ([]byte, error) {
	w := wireValue{Type: v.typ, Known: v.known}
	if v.known {
		switch v.typ {
		case TypeBool:
			w.Bool = v.b
		case TypeInt, TypeNodeState, TypeNodeOutcome, TypeFailureType, TypeCommandHandle:
			w.Int = v.i
		case TypeReal:
			w.Real = v.r
		case TypeString:
			w.Str = v.s
		}
	}
	if v.typ.IsArray() {
		return json.Marshal(struct {
			Type  ValueType  `json:"type"`
			Known bool       `json:"known"`
			Arr   *wireArray `json:"arr,omitempty"`
		}{Type: v.typ, Known: v.known, Arr: v.arr.toWire()})
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type  ValueType  `json:"type"`
		Known bool       `json:"known"`
		Arr   *wireArray `json:"arr,omitempty"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Type.IsArray() {
		*v = Value{typ: probe.Type, known: probe.Known, arr: fromWireArray(probe.Arr)}
		return nil
	}
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	nv := Value{typ: w.Type, known: w.Known}
	if w.Known {
		switch w.Type {
		case TypeBool:
			nv.b = w.Bool
		case TypeInt, TypeNodeState, TypeNodeOutcome, TypeFailureType, TypeCommandHandle:
			nv.i = w.Int
		case TypeReal:
			nv.r = w.Real
		case TypeString:
			nv.s = w.Str
		}
	}
	*v = nv
	return nil
}
