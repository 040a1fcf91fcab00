package safemath

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/govalues/decimal"
)

// ErrOverflow is the error wrapped by every failed arithmetic operation:
// the aligned value does not fit into uint64, the sum does not fit into uint64,
// or the difference is negative.
var ErrOverflow = errors.New("arithmetic overflow")

var errInvalidToken = errors.New("invalid token")

// Token type represents a non-negative quantity equal to value / 10^decimals.
// Its zero value corresponds to "0".
//
// There is no canonical form: "1" and "1.000" are different representations
// of the same quantity. Use [Token.Equal] to compare quantities.
//
// Token is designed to be safe for concurrent use by multiple goroutines.
type Token struct {
	value    fint  // quantity in the smallest unit
	decimals uint8 // number of implied digits after the decimal point
}

// NewToken returns a token equal to value / 10^decimals.
// Every combination of value and decimals is valid.
func NewToken(value uint64, decimals uint8) Token {
	return Token{value: fint(value), decimals: decimals}
}

// NewTokenFromDecimal converts a decimal to a token with the same
// coefficient and scale.
// See also method [Token.Decimal].
//
// NewTokenFromDecimal returns an error if the decimal is negative.
func NewTokenFromDecimal(d decimal.Decimal) (Token, error) {
	if d.IsNeg() {
		return Token{}, fmt.Errorf("converting %v to %T: negative value: %w", d, Token{}, errInvalidToken)
	}
	if d.Scale() < 0 || d.Scale() > math.MaxUint8 {
		return Token{}, fmt.Errorf("converting %v to %T: scale out of range: %w", d, Token{}, errInvalidToken)
	}
	return NewToken(d.Coef(), uint8(d.Scale())), nil //nolint:gosec
}

// ParseToken converts a string in plain decimal notation to a token.
// The number of digits after the decimal point becomes the number of decimals,
// so "1.500" is parsed as 1500 with 3 decimals.
// The input string must be in one of the following formats:
//
//	1.234
//	+1.234
//	1234
//	.234
//	1.
//
// ParseToken returns an error if:
//   - the string is empty or contains anything except digits, a single
//     decimal point and a leading plus sign;
//   - there are more than 255 digits after the decimal point;
//   - the value does not fit into uint64.
func ParseToken(s string) (Token, error) {
	t, err := parseToken(s)
	if err != nil {
		return Token{}, fmt.Errorf("parsing token: %w", err)
	}
	return t, nil
}

func parseToken(s string) (Token, error) {
	var pos int
	width := len(s)

	// Sign
	if pos < width && s[pos] == '+' {
		pos++
	}

	// Value
	var value fint
	var scale int
	var hasValue, ok bool

	// Integer
	for pos < width && s[pos] >= '0' && s[pos] <= '9' {
		value, ok = value.fsa(1, s[pos]-'0')
		if !ok {
			return Token{}, ErrOverflow
		}
		pos++
		hasValue = true
	}

	// Fraction
	if pos < width && s[pos] == '.' {
		pos++
		for pos < width && s[pos] >= '0' && s[pos] <= '9' {
			value, ok = value.fsa(1, s[pos]-'0')
			if !ok {
				return Token{}, ErrOverflow
			}
			pos++
			scale++
			hasValue = true
		}
	}

	if pos != width {
		return Token{}, fmt.Errorf("invalid character %q: %w", s[pos], errInvalidToken)
	}
	if !hasValue {
		return Token{}, fmt.Errorf("no digits: %w", errInvalidToken)
	}
	if scale > math.MaxUint8 {
		return Token{}, fmt.Errorf("%v digits after the decimal point: %w", scale, errInvalidToken)
	}
	return Token{value: value, decimals: uint8(scale)}, nil
}

// MustParseToken is like [ParseToken] but panics if the string cannot be parsed.
// It simplifies safe initialization of global variables holding tokens.
func MustParseToken(s string) Token {
	t, err := ParseToken(s)
	if err != nil {
		panic(fmt.Sprintf("ParseToken(%q) failed: %v", s, err))
	}
	return t
}

// Coef returns the quantity in the smallest unit, i.e. the token multiplied
// by 10^decimals.
func (t Token) Coef() uint64 {
	return uint64(t.value)
}

// Decimals returns the number of implied digits after the decimal point.
func (t Token) Decimals() uint8 {
	return t.decimals
}

// IsZero returns:
//
//	true  if t = 0
//	false otherwise
func (t Token) IsZero() bool {
	return t.value == 0
}

// SameDecimals returns true if tokens have the same number of decimals.
// See also method [Token.Decimals].
func (t Token) SameDecimals(b Token) bool {
	return t.Decimals() == b.Decimals()
}

// Decimal returns the token as a decimal with the same coefficient and scale.
// See also constructor [NewTokenFromDecimal].
//
// Decimal returns an error if:
//   - the value is greater than [math.MaxInt64];
//   - the number of decimals is greater than [decimal.MaxScale].
func (t Token) Decimal() (decimal.Decimal, error) {
	if t.Coef() > math.MaxInt64 {
		return decimal.Decimal{}, fmt.Errorf("converting %v to %T: %w", t, decimal.Decimal{}, ErrOverflow)
	}
	d, err := decimal.New(int64(t.Coef()), int(t.Decimals()))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("converting %v to %T: %w", t, decimal.Decimal{}, err)
	}
	return d, nil
}

// align returns the values of tokens a and b rescaled to the larger of their
// numbers of decimals, together with that number.
// Only the token with fewer decimals is rescaled.
func align(a, b Token) (x, y fint, decimals uint8, err error) {
	x, y = a.value, b.value
	var ok bool
	switch {
	case a.Decimals() > b.Decimals():
		decimals = a.Decimals()
		y, ok = y.lsh(int(a.Decimals() - b.Decimals()))
	default:
		decimals = b.Decimals()
		x, ok = x.lsh(int(b.Decimals() - a.Decimals()))
	}
	if !ok {
		return 0, 0, 0, fmt.Errorf("rescaling to %v decimals: %w", decimals, ErrOverflow)
	}
	return x, y, decimals, nil
}

// Add returns the sum of tokens a and b.
// The number of decimals of the result is the larger of the numbers of
// decimals of a and b, so no digits are lost.
//
// Add returns an error wrapping [ErrOverflow] if:
//   - the value of the token with fewer decimals multiplied by 10^d does not
//     fit into uint64, where d is the difference in decimals;
//   - the sum does not fit into uint64.
func (a Token) Add(b Token) (Token, error) {
	c, err := a.add(b)
	if err != nil {
		return Token{}, fmt.Errorf("computing [%v + %v]: %w", a, b, err)
	}
	return c, nil
}

func (a Token) add(b Token) (Token, error) {
	x, y, scale, err := align(a, b)
	if err != nil {
		return Token{}, err
	}
	z, ok := x.add(y)
	if !ok {
		return Token{}, ErrOverflow
	}
	return Token{value: z, decimals: scale}, nil
}

// Sub returns the difference between tokens a and b.
// The number of decimals of the result is the larger of the numbers of
// decimals of a and b, so no digits are lost.
//
// Sub returns an error wrapping [ErrOverflow] if:
//   - the value of the token with fewer decimals multiplied by 10^d does not
//     fit into uint64, where d is the difference in decimals;
//   - b is greater than a, since negative tokens cannot be represented.
func (a Token) Sub(b Token) (Token, error) {
	c, err := a.sub(b)
	if err != nil {
		return Token{}, fmt.Errorf("computing [%v - %v]: %w", a, b, err)
	}
	return c, nil
}

func (a Token) sub(b Token) (Token, error) {
	x, y, scale, err := align(a, b)
	if err != nil {
		return Token{}, err
	}
	z, ok := x.sub(y)
	if !ok {
		return Token{}, fmt.Errorf("negative result: %w", ErrOverflow)
	}
	return Token{value: z, decimals: scale}, nil
}

// Equal returns true if tokens a and b represent the same quantity,
// regardless of their numbers of decimals.
// For example, "5" is equal to "5.00", but not to "5.01".
//
// If the token with fewer decimals cannot be rescaled without overflow,
// its quantity is greater than any token with more decimals, and Equal
// returns false.
func (a Token) Equal(b Token) bool {
	x, y, _, err := align(a, b)
	if err != nil {
		return false
	}
	return x == y
}

// String implements the [fmt.Stringer] interface and returns the token in
// plain decimal notation with exactly [Token.Decimals] digits after the
// decimal point.
// For example, 1500 with 3 decimals is "1.500".
// See also constructor [ParseToken] and method [Token.Format].
//
// [fmt.Stringer]: https://pkg.go.dev/fmt#Stringer
func (t Token) String() string {
	return string(t.bytes())
}

// bytes returns the plain decimal notation of the token.
func (t Token) bytes() []byte {
	value, scale := t.value, int(t.Decimals())

	// Integer and fractional digits
	intdigs, fracdigs := 1, scale // leading 0
	if prec := value.prec(); prec > scale {
		intdigs = prec - scale
	}

	// Decimal point
	dpoint := 0
	if fracdigs > 0 {
		dpoint = 1
	}

	buf := make([]byte, intdigs+dpoint+fracdigs)
	pos := len(buf) - 1

	// Fractional digits
	for range fracdigs {
		buf[pos] = byte(value%10) + '0'
		pos--
		value /= 10
	}

	// Decimal point
	if dpoint > 0 {
		buf[pos] = '.'
		pos--
	}

	// Integer digits
	for range intdigs {
		buf[pos] = byte(value%10) + '0'
		pos--
		value /= 10
	}

	return buf
}

// Format implements the [fmt.Formatter] interface.
// The following [format verbs] are available:
//
//	| Verb   | Example | Description             |
//	| ------ | ------- | ----------------------- |
//	| %s, %v | 5.678   | Token                   |
//	| %q     | "5.678" | Quoted token            |
//	| %d     | 5678    | Coefficient             |
//
// The '-' format flag can be used with all verbs.
// The '0' format flag can be used with all verbs except %q.
//
// [format verbs]: https://pkg.go.dev/fmt#hdr-Printing
// [fmt.Formatter]: https://pkg.go.dev/fmt#Formatter
func (t Token) Format(state fmt.State, verb rune) {
	// Digits
	var digs []byte
	switch verb {
	case 'd', 'D':
		digs = strconv.AppendUint(nil, t.Coef(), 10)
	default:
		digs = t.bytes()
	}

	// Opening and closing quotes
	lquote, tquote := 0, 0
	if verb == 'q' || verb == 'Q' {
		lquote, tquote = 1, 1
	}

	// Calculating padding
	width := lquote + len(digs) + tquote
	lspaces, lzeros, tspaces := 0, 0, 0
	if w, ok := state.Width(); ok && w > width {
		switch {
		case state.Flag('-'):
			tspaces = w - width
		case state.Flag('0') && verb != 'q' && verb != 'Q':
			lzeros = w - width
		default:
			lspaces = w - width
		}
		width = w
	}

	buf := make([]byte, 0, width)

	// Leading spaces
	for range lspaces {
		buf = append(buf, ' ')
	}

	// Opening quote
	for range lquote {
		buf = append(buf, '"')
	}

	// Leading zeros
	for range lzeros {
		buf = append(buf, '0')
	}

	// Digits
	buf = append(buf, digs...)

	// Closing quote
	for range tquote {
		buf = append(buf, '"')
	}

	// Trailing spaces
	for range tspaces {
		buf = append(buf, ' ')
	}

	// Writing result
	//nolint:errcheck
	switch verb {
	case 'q', 'Q', 's', 'S', 'v', 'V', 'd', 'D':
		state.Write(buf)
	default:
		state.Write([]byte("%!"))
		state.Write([]byte{byte(verb)})
		state.Write([]byte("(safemath.Token="))
		state.Write(buf)
		state.Write([]byte(")"))
	}
}

// UnmarshalJSON implements the [json.Unmarshaler] interface.
// Both quoted and unquoted numbers are accepted; null is a no-op.
// See also constructor [ParseToken].
//
// [json.Unmarshaler]: https://pkg.go.dev/encoding/json#Unmarshaler
func (t *Token) UnmarshalJSON(text []byte) error {
	if string(text) == "null" {
		return nil
	}
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	u, err := ParseToken(string(text))
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Token{}, err)
	}
	*t = u
	return nil
}

// MarshalJSON implements the [json.Marshaler] interface.
// MarshalJSON always returns a quoted string, since JSON numbers are usually
// decoded as float64.
// See also method [Token.String].
//
// [json.Marshaler]: https://pkg.go.dev/encoding/json#Marshaler
func (t Token) MarshalJSON() ([]byte, error) {
	text := make([]byte, 0, 24)
	text = append(text, '"')
	text = append(text, t.bytes()...)
	text = append(text, '"')
	return text, nil
}

// UnmarshalText implements the [encoding.TextUnmarshaler] interface.
// See also constructor [ParseToken].
//
// [encoding.TextUnmarshaler]: https://pkg.go.dev/encoding#TextUnmarshaler
func (t *Token) UnmarshalText(text []byte) error {
	u, err := ParseToken(string(text))
	if err != nil {
		return fmt.Errorf("unmarshaling %T: %w", Token{}, err)
	}
	*t = u
	return nil
}

// AppendText implements the [encoding.TextAppender] interface.
// See also method [Token.String].
//
// [encoding.TextAppender]: https://pkg.go.dev/encoding#TextAppender
func (t Token) AppendText(text []byte) ([]byte, error) {
	return append(text, t.bytes()...), nil
}

// MarshalText implements the [encoding.TextMarshaler] interface.
// See also method [Token.String].
//
// [encoding.TextMarshaler]: https://pkg.go.dev/encoding#TextMarshaler
func (t Token) MarshalText() ([]byte, error) {
	return t.bytes(), nil
}

// Scan implements the [sql.Scanner] interface.
// Integer columns are scanned as tokens without decimals.
//
// [sql.Scanner]: https://pkg.go.dev/database/sql#Scanner
func (t *Token) Scan(value any) error {
	var err error
	var u Token
	switch value := value.(type) {
	case string:
		u, err = ParseToken(value)
	case []byte:
		u, err = ParseToken(string(value))
	case int64:
		if value < 0 {
			err = fmt.Errorf("negative value %v: %w", value, errInvalidToken)
		}
		u = NewToken(uint64(value), 0) //nolint:gosec
	case nil:
		err = fmt.Errorf("%T does not support null values, use *%T", Token{}, Token{})
	default:
		err = fmt.Errorf("type %T is not supported", value)
	}
	if err != nil {
		return fmt.Errorf("converting from %T to %T: %w", value, Token{}, err)
	}
	*t = u
	return nil
}

// Value implements the [driver.Valuer] interface.
// The token is stored as a string to preserve its number of decimals.
//
// [driver.Valuer]: https://pkg.go.dev/database/sql/driver#Valuer
func (t Token) Value() (driver.Value, error) {
	return t.String(), nil
}
