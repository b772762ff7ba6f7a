/*
Package signature derives signature specs from player cipher functions.

A cipher function only reorders, drops or duplicates the characters of its
input. Calling it once on a string of distinct characters reveals where
every output character came from; that list of source indexes is the
spec. Later signatures of the same length are decrypted from the spec
without running JavaScript again.

Specs are cached by player version, function name and signature length.
*/
package signature
