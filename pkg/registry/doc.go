// Package registry is the client for the Smithed pack registry API. It
// fetches pack and bundle metadata and downloads welded pack archives.
package registry
