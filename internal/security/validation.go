package security

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ValidPackageNameRegex matches xbps package names such as gtk+3 or
	// python3-foo_bar. A leading '-' would be read as a flag.
	ValidPackageNameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+-]*$`)

	// dangerousArgChars never appear in a legitimate xbps flag
	dangerousArgChars = []string{"\x00", "\n", "\r", ";", "`", "$(", "|"}
)

const maxNameLength = 255

// ValidatePackageName validates a package name given on the command line
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name cannot be empty")
	}

	if len(name) > maxNameLength {
		return fmt.Errorf("package name too long (max %d characters)", maxNameLength)
	}

	if !ValidPackageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid package name %q: must start with a letter or digit and contain only alphanumeric, dot, plus, dash or underscore characters", name)
	}

	return nil
}

// ValidateCommandArg validates an argument forwarded to the backend
func ValidateCommandArg(arg string) error {
	for _, char := range dangerousArgChars {
		if strings.Contains(arg, char) {
			return fmt.Errorf("argument %q contains dangerous character %q", arg, char)
		}
	}
	return nil
}

// ValidateSearchTerm validates a query term. Terms may hold spaces but
// no control characters.
func ValidateSearchTerm(term string) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("search term cannot be empty")
	}
	if strings.ContainsAny(term, "\x00\n\r") {
		return fmt.Errorf("search term %q contains a control character", term)
	}
	return nil
}

// ValidateRequest checks every package name and backend flag, reporting
// all failures at once
func ValidateRequest(pkgs, flags []string) error {
	var errs []error
	for _, pkg := range pkgs {
		if err := ValidatePackageName(pkg); err != nil {
			errs = append(errs, err)
		}
	}
	for _, flag := range flags {
		if err := ValidateCommandArg(flag); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
