// Package lang implements the two small grammars used by yaani
// configuration files and the evaluator that resolves them.
//
// # Key-path expressions
//
// A key-path expression names a value inside one of three namespaces
// available while an entity is processed: b (variables built so far),
// i (the raw fields imported from NetBox), and s (the sub-import tree).
// The namespace selector is written in angle brackets and defaults to i:
//
//	<i>device_role.slug
//	<s>interfaces.eth0.ip_address
//	primary_ip.address|default_key(<b>fallback_ip)
//	<i>site.slug|sub("-", "_")
//
// Two pipe operators compose left to right: default_key evaluates its
// key-path argument when the left side resolves to null, and sub applies
// a regular-expression rewrite with an optional occurrence limit.
//
// The terminal key ALL short-circuits resolution to the current container
// instead of descending further. It is only valid as the last key of a
// path; anywhere else it is a syntax error.
//
// # Stack strings
//
// A stack string is a dotted chain of declared sub-import variable names
// (for example "interfaces.ip_addresses") describing the depth and order
// of a join chain. [ParseStack] compiles it to the ordered name sequence.
//
// Both parsers are single-pass recursive descent over the input bytes.
// Parsed expressions are immutable and may be evaluated any number of
// times against different namespace sets with [Resolve].
package lang
