// pkg/transform/transform.go
package transform

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultVATRate is the VAT applied to marketplace prices.
const DefaultVATRate = 0.20

// Transformer defines the interface for field transformations.
// A nil input means the field is absent and passes through as nil.
type Transformer interface {
	Transform(value interface{}) (interface{}, error)
}

// ExcludeTaxTransform divides a tax-inclusive amount by 1 + Rate
type ExcludeTaxTransform struct {
	Rate float64
}

func (t *ExcludeTaxTransform) Transform(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	v, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	return v / (1 + t.Rate), nil
}

// RoundTransform rounds to Places decimals, see Round
type RoundTransform struct {
	Places int
}

func (t *RoundTransform) Transform(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	v, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	return Round(v, t.Places), nil
}

// NFCTransform puts a string in Unicode normalization form C
type NFCTransform struct{}

func (t *NFCTransform) Transform(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("nfc transform requires string input, got %T", value)
	}
	return norm.NFC.String(str), nil
}

// TrimTransform trims whitespace from strings.
// With DropEmpty set, a string that trims to nothing becomes nil.
type TrimTransform struct {
	DropEmpty bool
}

func (t *TrimTransform) Transform(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	str, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("trim transform requires string input, got %T", value)
	}
	str = strings.TrimSpace(str)
	if str == "" && t.DropEmpty {
		return nil, nil
	}
	return str, nil
}

// ChainTransform applies multiple transforms in sequence
type ChainTransform struct {
	transforms []Transformer
}

// NewChainTransform creates a transform that applies multiple transforms in order
func NewChainTransform(transforms ...Transformer) *ChainTransform {
	return &ChainTransform{transforms: transforms}
}

func (t *ChainTransform) Transform(value interface{}) (interface{}, error) {
	result := value
	for _, transform := range t.transforms {
		var err error
		result, err = transform.Transform(result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// NetPrice converts a tax-inclusive amount to a tax-exclusive one rounded to cents.
var NetPrice = NewChainTransform(&ExcludeTaxTransform{Rate: DefaultVATRate}, &RoundTransform{Places: 2})

// CleanText normalizes free text to NFC and trims it; blank text becomes nil.
var CleanText = NewChainTransform(&NFCTransform{}, &TrimTransform{DropEmpty: true})

// ExcludeTax returns amount / (1 + rate) rounded to 2 decimals.
func ExcludeTax(amount, rate float64) float64 {
	return Round(amount/(1+rate), 2)
}

// Round rounds the exact binary value of v to the given number of decimals.
// Exact ties go to the even digit, so 2.675 gives 2.67 and 0.125 gives 0.12.
func Round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

func toFloat(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float", value)
	}
}
