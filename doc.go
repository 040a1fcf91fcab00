/*
Package safemath implements fixed-point token quantities and arithmetic that
is safe across different numbers of decimals.

# Representation

A [Token] is a pair of an unsigned 64-bit coefficient and an 8-bit number of
decimals. It represents the quantity

	coefficient / 10^decimals

For example, one US dollar can be written as 1 with 0 decimals, as 1_000 with
3 decimals (milli-dollars), or as 1_000_000 with 6 decimals (micro-dollars).
There is no canonical form, and all three tokens are equal.

# Operations

[Token.Add], [Token.Sub], and [Token.Equal] first align their operands: the
coefficient of the token with fewer decimals is multiplied by 10^d, where d
is the difference in decimals, and the result keeps the larger number of
decimals. The coefficient of the token with more decimals is never changed,
so no digits are lost. No floating-point arithmetic is involved.

# Errors

Arithmetic is checked. [Token.Add] and [Token.Sub] return an error wrapping
[ErrOverflow] when:

  - the aligned coefficient does not fit into uint64
    (10^20 already does not, so a difference of 20 or more decimals fails
    unless the coefficient being rescaled is zero);
  - the sum does not fit into uint64;
  - the difference is negative, since tokens cannot be negative.

[Token.Equal] never fails: a coefficient that cannot be aligned is larger
than any coefficient it is compared with.

Tokens do not carry a unit. Adding tokens that denominate different assets
is the caller's responsibility to prevent.
*/
package safemath
