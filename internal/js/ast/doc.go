/*
Package ast declares the syntax tree produced by the parser.

Statements implement Stmt and expressions implement Expr. Every node embeds
the Position of its first token. Trees are never modified after parsing and
hold no runtime values, so a Program can be evaluated many times.
*/
package ast
