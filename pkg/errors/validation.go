package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxNBTString is the longest string an NBT string tag can hold (uint16 length prefix).
const maxNBTString = 65535

// ValidateRegionName validates a schematic region name.
// Region names become NBT compound keys, so they must fit an NBT string
// and may not contain control characters.
func ValidateRegionName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "region name cannot be empty")
	}

	if len(name) > maxNBTString {
		return New(ErrCodeInvalidInput, "region name too long (max %d bytes)", maxNBTString)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "region name contains invalid control characters")
		}
	}

	return nil
}

// blockNameRegex matches namespaced identifiers such as "minecraft:oak_log".
// The namespace is optional.
var blockNameRegex = regexp.MustCompile(`^([a-z0-9_.-]+:)?[a-z0-9_./-]+$`)

// ValidateBlockName validates a block identifier.
func ValidateBlockName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "block name cannot be empty")
	}

	if !blockNameRegex.MatchString(name) {
		return New(ErrCodeInvalidInput, "invalid block name: %q", name)
	}

	return nil
}

// ValidatePath validates a local file path supplied on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateListenAddr validates a host:port listen address.
func ValidateListenAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "listen address cannot be empty")
	}

	i := strings.LastIndex(addr, ":")
	if i < 0 || i == len(addr)-1 {
		return New(ErrCodeInvalidConfig, "listen address %q must include a port", addr)
	}

	for _, r := range addr[i+1:] {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidConfig, "listen address %q has a non-numeric port", addr)
		}
	}

	return nil
}
