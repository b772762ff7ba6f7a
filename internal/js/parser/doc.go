/*
Package parser builds an ast.Program from JavaScript tokens.

Statements are parsed by recursive descent and expressions by precedence
climbing over a binding-power table. Semicolons are inserted before a
closing brace, at the end of input and at line breaks. var names and
function declarations are collected per function while parsing, so the
evaluator can hoist them without another pass.

ExtractFunction and ExtractObject locate a named function or object
literal, which is how cipher functions are pulled out of a larger player
script.
*/
package parser
