// Package scss compiles a subset of Sass (SCSS syntax) to plain CSS.
//
// A stylesheet is tokenized, parsed and evaluated into a tree of statements
// (RuleSet, Style, Media, ...). Render flattens that tree and writes it as
// expanded CSS. The Compiler ties the stages together, resolves imports and
// can also compile SCSS embedded in HTML documents.
package scss
