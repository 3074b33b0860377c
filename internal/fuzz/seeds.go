package fuzztests

import "testing"

const (
	maxFuzzInput = 64 << 10 // 64 KiB
)

var moduleSeeds = []string{
	`module: util
definitions:
  - public: true
    function: {name: one, body: [{expr: {int: "1"}}]}
`,
	`module: app
definitions:
  - import: {module: util}
  - public: true
    function: {name: main, body: [{expr: {int: "2"}}]}
`,
	`module: app/internal/codec
definitions:
  - public: true
    function:
      name: id
      params: [{name: x}]
      body: [{expr: {var: {name: x}}}]
`,
	// заведомо битые документы
	"",
	"module: [\n",
	"module: x\ndefinitions: 3\n",
	"module: x\ndefinitions:\n  - function: {name: f, body: [{expr: {float: \"1.8e308\"}}]}\n",
	"module: x\ndefinitions:\n  - function: {name: f, body: [{expr: {int: \"99999999999999999999\"}}]}\n",
}

func addModuleSeeds(f *testing.F) {
	for _, seed := range moduleSeeds {
		f.Add([]byte(seed))
	}
}

func clampInput(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
