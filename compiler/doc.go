/*

Process of compilation

Entries (modules and scripts) ->
	resolve paths ->
Resolved entries ->
	load in order (loader discovers and loads dependencies first) ->
Session (ordered compiled elements) ->
	finish ->
Tree ->
	render + write ->
Output artifact

Single-file mode merges all entries into one tree and writes it inside a
scoped working-directory switch to the output directory. Per-entry mode
compiles entries concurrently, each into its own tree, mirrored under the
output directory. Dependency-target mode drives resolution only and
produces no artifact.

*/
package compiler
