// Package fuzztests houses Go fuzz harnesses for the front half of nixgen:
// interchange bytes -> tastio.Decode -> nix.EmitModule. The goal is to make
// sure arbitrary input ends in a diagnostic, never a panic or a hang.
//
// Не делает: запись файлов, кэш, CLI.

package fuzztests
