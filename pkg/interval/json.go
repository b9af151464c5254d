package interval

import (
	"cmp"
	"encoding/json"
	"fmt"
)

type wireEntry[K cmp.Ordered, V any] struct {
	Lower K `json:"lower"`
	Upper K `json:"upper"`
	Value V `json:"value"`
}

func marshalEntries[K cmp.Ordered, V any](entries []entry[K, V]) ([]byte, error) {
	out := make([]wireEntry[K, V], len(entries))
	for i, e := range entries {
		out[i] = wireEntry[K, V]{Lower: e.rng.Lower, Upper: e.rng.Upper, Value: e.value}
	}
	return json.Marshal(out)
}

func unmarshalEntries[K cmp.Ordered, V any](data []byte) ([]wireEntry[K, V], error) {
	var items []wireEntry[K, V]
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode interval entries: %w", err)
	}
	return items, nil
}
