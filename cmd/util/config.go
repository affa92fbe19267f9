package util

// ConfigFile holds the root --config flag. Empty means ./schemadiff.yaml when present.
var ConfigFile string
