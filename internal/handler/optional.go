package handler

import "encoding/json"

// optional tells an absent field apart from an explicit null, which a plain
// pointer cannot.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// cleared reports an explicit null.
func (o optional[T]) cleared() bool { return o.Set && o.Value == nil }
