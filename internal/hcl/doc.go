// Package hcl provides the HCL implementation of config.Loader. It is
// responsible for file discovery, parsing, HCL-to-model translation and the
// conversion of attribute values into Go types.
package hcl
