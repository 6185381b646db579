// Package install fetches the content a bundle needs just before launch: the
// welded data/resource pack archive from the registry and the companion mods
// that make global datapacks and resource packs work on Fabric. Nothing is
// retried and nothing already written is rolled back on failure.
package install
