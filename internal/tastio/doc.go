// Package tastio reads typed-module interchange files.
//
// A front-end that has parsed and type checked a module writes it as YAML;
// this package turns that document back into a tast.Module. Every node is a
// mapping with exactly one variant key:
//
//	module: app
//	source: app.gleam
//	definitions:
//	  - public: true
//	    function:
//	      name: main
//	      body:
//	        - expr: {int: "1", span: [20, 21]}
//
// Spans are [start, end) byte offsets into the file named by `source`.
package tastio
