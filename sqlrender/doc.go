// Package sqlrender renders parameterized SQL used by covariate builders.
//
// Supported syntax:
//   - @name parameter substitution
//   - {DEFAULT @name = value} declarations, applied when the caller does not
//     supply the parameter
//   - {condition} ? {sql} and {condition} ? {sql} : {sql} blocks, where a
//     condition is a literal truth value, an equality (==, !=) or an IN list,
//     optionally negated with ! and combined with & and |
//
// Rendering only substitutes text; it does not translate between SQL
// dialects.
package sqlrender
