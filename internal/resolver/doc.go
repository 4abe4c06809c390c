// Package resolver holds the built-in template resolvers: in-memory strings,
// fs.FS and directory trees, HTTP endpoints and SQL tables. Construction
// helpers live in the root tplengine package.
package resolver
