package amount

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

// Symbol is an asset symbol as it appears on chain.
type Symbol string

const (
	STEEM Symbol = "STEEM"
	SBD   Symbol = "SBD"
	VESTS Symbol = "VESTS"
)

// Kind groups symbols by the ledger column they affect.
type Kind int

const (
	KindUnknown Kind = iota
	KindCurrencyA
	KindCurrencyB
	KindStake
)

// Asset ids used by the NAI serialization.
const (
	naiSteem = "@@000000021"
	naiSBD   = "@@000000013"
	naiVests = "@@000000037"
)

// aliases maps sister-chain and testnet symbols onto the canonical ones.
var aliases = map[string]Symbol{
	"STEEM": STEEM,
	"HIVE":  STEEM,
	"TESTS": STEEM,
	"SBD":   SBD,
	"HBD":   SBD,
	"TBD":   SBD,
	"VESTS": VESTS,
}

var nais = map[string]Symbol{
	naiSteem: STEEM,
	naiSBD:   SBD,
	naiVests: VESTS,
}

// Amount is a decimal quantity of one asset.
type Amount struct {
	Value  decimal.Decimal
	Symbol Symbol
}

// ParseError reports an amount that could not be decoded.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Input, e.Reason)
}

// New returns an amount of the given symbol.
func New(value decimal.Decimal, symbol Symbol) Amount {
	return Amount{Value: value, Symbol: symbol}
}

// Zero returns a zero amount of the given symbol.
func Zero(symbol Symbol) Amount {
	return Amount{Value: decimal.Zero, Symbol: symbol}
}

// MustParse is Parse for literals in tests and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Parse decodes the legacy "<value> <SYMBOL>" form, e.g. "1.000 STEEM".
func Parse(s string) (Amount, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Amount{}, &ParseError{Input: s, Reason: "expected \"<value> <symbol>\""}
	}
	symbol, ok := aliases[strings.ToUpper(fields[1])]
	if !ok {
		return Amount{}, &ParseError{Input: s, Reason: "unknown symbol " + fields[1]}
	}
	value, err := decimal.NewFromString(fields[0])
	if err != nil {
		return Amount{}, &ParseError{Input: s, Reason: err.Error()}
	}
	return Amount{Value: value, Symbol: symbol}, nil
}

// FromJSON decodes any of the three serializations nodes emit: the legacy
// string, the NAI array ["1000", 3, "@@000000021"] and the NAI object
// {"amount": "1000", "precision": 3, "nai": "@@000000021"}.
func FromJSON(r gjson.Result) (Amount, error) {
	switch {
	case r.Type == gjson.String:
		return Parse(r.String())
	case r.IsArray():
		parts := r.Array()
		if len(parts) != 3 {
			return Amount{}, &ParseError{Input: r.Raw, Reason: "nai array must have 3 elements"}
		}
		return fromNAI(r.Raw, parts[0].String(), parts[1], parts[2].String())
	case r.IsObject():
		return fromNAI(r.Raw, r.Get("amount").String(), r.Get("precision"), r.Get("nai").String())
	}
	return Amount{}, &ParseError{Input: r.Raw, Reason: "unsupported json type"}
}

func fromNAI(raw, satoshis string, precision gjson.Result, nai string) (Amount, error) {
	symbol, ok := nais[nai]
	if !ok {
		return Amount{}, &ParseError{Input: raw, Reason: "unknown nai " + nai}
	}
	if !precision.Exists() {
		return Amount{}, &ParseError{Input: raw, Reason: "missing precision"}
	}
	p, err := strconv.ParseInt(precision.String(), 10, 32)
	if err != nil {
		return Amount{}, &ParseError{Input: raw, Reason: "bad precision"}
	}
	value, err := decimal.NewFromString(satoshis)
	if err != nil {
		return Amount{}, &ParseError{Input: raw, Reason: err.Error()}
	}
	return Amount{Value: value.Shift(int32(-p)), Symbol: symbol}, nil
}

// Kind reports which ledger column the amount belongs to.
func (a Amount) Kind() Kind {
	switch a.Symbol {
	case STEEM:
		return KindCurrencyA
	case SBD:
		return KindCurrencyB
	case VESTS:
		return KindStake
	}
	return KindUnknown
}

// Neg returns the amount with its sign flipped.
func (a Amount) Neg() Amount {
	return Amount{Value: a.Value.Neg(), Symbol: a.Symbol}
}

func (a Amount) IsZero() bool { return a.Value.IsZero() }

func (a Amount) String() string {
	places := int32(3)
	if a.Symbol == VESTS {
		places = 6
	}
	return a.Value.StringFixed(places) + " " + string(a.Symbol)
}

// MarshalJSON encodes the legacy string form.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(a.String())), nil
}
