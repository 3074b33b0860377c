package nix

import (
	_ "embed"
	"slices"
	"strings"
)

// PreludeFile is the file name of the runtime support module, written at
// the root of the output tree.
const PreludeFile = "gleam.nix"

//go:embed prelude/gleam.nix
var preludeSource string

// Prelude returns the source of the runtime support module.
func Prelude() string { return preludeSource }

// Helpers exported by the prelude that generated code references.
var preludeHelpers = []string{
	"Empty", "Error", "Ok",
	"bitArrayBits", "bitArrayCodepointWidth", "bitArrayFromBytes",
	"bitArrayLength", "bitArraySlice", "bitArraySliceAfter",
	"bitArraySliceCodepoint", "bitArraySliceToInt", "codepointBits",
	"divideFloat", "divideInt", "inspect", "listHasAtLeastLength",
	"listHasLength", "listPrepend", "makeError", "remainderInt",
	"sizedBits", "sizedInt", "strHasPrefix", "stringBits", "toBitArray",
	"toList",
}

// preludeBinding is the module-level name the prelude is imported under.
// The quote keeps it apart from anything a source name renders to.
const preludeBinding = "gleam'"

func isPreludeHelper(name string) bool {
	_, ok := slices.BinarySearch(preludeHelpers, name)
	return ok
}

// relativePath returns a Nix path literal from module `from` to the file
// target (a slash separated path relative to the output root).
func relativePath(from, target string) string {
	depth := strings.Count(from, "/")
	return "./" + strings.Repeat("../", depth) + target
}
