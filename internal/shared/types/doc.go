// Package types holds data shapes shared by persistence, providers and
// prompt formatting.
//
// Person mirrors the subset of the Proxycurl person endpoint response the
// service stores and renders. JSON tags match the upstream field names so
// the stored document can be decoded by other consumers of the table.
package types
