package scoring

import "encoding/json"

// ScoreVector maps a dimension key to its score. A dimension with no
// contributing answers is simply absent from the map; it is never stored
// as zero. JSON null values (as written by older exports) normalize to
// absent keys on load.
type ScoreVector map[string]float64

// UnmarshalJSON drops null-valued dimensions so that `{"ads": null}` and a
// missing "ads" key are indistinguishable to consumers.
func (v *ScoreVector) UnmarshalJSON(data []byte) error {
	var raw map[string]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ScoreVector, len(raw))
	for dim, val := range raw {
		if val != nil {
			out[dim] = *val
		}
	}
	*v = out
	return nil
}

// Clone returns an independent copy of the vector.
func (v ScoreVector) Clone() ScoreVector {
	if v == nil {
		return nil
	}
	out := make(ScoreVector, len(v))
	for dim, val := range v {
		out[dim] = val
	}
	return out
}

// Get returns the score for a dimension and whether it is present.
func (v ScoreVector) Get(dimension string) (float64, bool) {
	val, ok := v[dimension]
	return val, ok
}
