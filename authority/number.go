// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package authority

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/GoogleCloudPlatform/tallyauthority/authority/autherr"
)

// Number is an arbitrary-precision integer that decodes from either a JSON
// number or a quoted decimal string, and always encodes as a quoted decimal
// string. Values beyond 2^53 must be quoted in YAML files, since the YAML to
// JSON conversion goes through float64 for bare numbers.
type Number struct {
	v *big.Int
}

// NewNumber wraps x. A nil x yields an unset Number.
func NewNumber(x *big.Int) Number {
	if x == nil {
		return Number{}
	}
	return Number{v: new(big.Int).Set(x)}
}

// NumberOf wraps an int64.
func NumberOf(x int64) Number {
	return Number{v: big.NewInt(x)}
}

// ParseNumber parses a base 10 integer.
func ParseNumber(s string) (Number, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Number{}, autherr.New(autherr.BadInput, "%q is not a decimal integer", s)
	}
	return Number{v: v}, nil
}

// IsSet reports whether n holds a value.
func (n Number) IsSet() bool {
	return n.v != nil
}

// Int returns a copy of the value, or nil when unset.
func (n Number) Int() *big.Int {
	if n.v == nil {
		return nil
	}
	return new(big.Int).Set(n.v)
}

func (n Number) String() string {
	if n.v == nil {
		return "<unset>"
	}
	return n.v.String()
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if n.v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.v.String())
}

// maxExponent bounds the exponent of a JSON number such as 1e3, so a short
// literal cannot expand into an enormous integer.
const maxExponent = 1000

// parseIntegral parses a bare JSON number whose value is an integer, such as
// 5, 5.0 or 1e3. Fractional values are rejected.
func parseIntegral(s string) (*big.Int, error) {
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, nil
	}
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return nil, autherr.New(autherr.BadInput, "%q is not an integer", s)
		}
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok || !r.IsInt() {
		return nil, autherr.New(autherr.BadInput, "%q is not an integer", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// UnmarshalJSON implements json.Unmarshaler. Quoted values must be decimal
// integers; bare JSON numbers may use a fraction or exponent as long as the
// value is integral.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		n.v = nil
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return autherr.Wrap(autherr.BadInput, err, "decoding integer string")
		}
		parsed, err := ParseNumber(s)
		if err != nil {
			return err
		}
		n.v = parsed.v
		return nil
	}
	v, err := parseIntegral(string(b))
	if err != nil {
		return err
	}
	n.v = v
	return nil
}
