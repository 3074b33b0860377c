// Package tast defines the typed abstract syntax tree consumed by the Nix
// backend.
//
// The tree is produced by the front-end (parser + type checker) and is
// read-only here. Every node is a tagged variant: a Kind discriminator plus a
// kind-specific Data payload, so consumers switch exhaustively on Kind.
// Variable references carry their resolved classification (local, module
// constant, module function, constructor); nothing downstream re-derives it
// from spelling.
package tast
