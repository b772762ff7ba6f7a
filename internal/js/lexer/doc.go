/*
Package lexer turns JavaScript source text into tokens.

It covers the subset of the language found in obfuscated player scripts:
numbers (decimal, hex, octal, binary), quoted strings with the usual
escapes, regular expression literals, identifiers, keywords and
punctuators. Comments and whitespace are skipped but line breaks are
recorded on the following token so the parser can insert semicolons.

Whether a slash starts a regular expression or is a division is decided
from the previous significant token.
*/
package lexer
