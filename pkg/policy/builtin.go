package policy

// builtinPolicies returns the policies compiled into the binary. They guard
// against manifests that reach outside the user's own files; site policies
// loaded from disk can add to but not replace them.
func builtinPolicies() []Policy {
	return []Policy{
		homeBoundaryPolicy(),
		packageHygienePolicy(),
	}
}

// homeBoundaryPolicy rejects link targets and permission paths outside the
// home directory. A dotfiles run should never write elsewhere.
func homeBoundaryPolicy() Policy {
	return Policy{
		Name:        "home-boundary",
		Description: "Link targets and permission paths must stay inside the home directory",
		Rego: `package dotfix.policies.boundary

import rego.v1

inside_home(path) if {
	startswith(path, input.facts.home)
}

inside_home(path) if {
	startswith(path, "~")
}

deny contains violation if {
	some link in input.manifest.links
	not inside_home(link.target)
	violation := {
		"message": sprintf("link target %s is outside the home directory", [link.target]),
		"severity": "error",
	}
}

deny contains violation if {
	some perm in input.manifest.permissions
	not inside_home(perm.path)
	violation := {
		"message": sprintf("permission path %s is outside the home directory", [perm.path]),
		"severity": "error",
	}
}
`,
	}
}

// packageHygienePolicy flags suspicious package names before they reach the
// package manager's command line.
func packageHygienePolicy() Policy {
	return Policy{
		Name:        "package-hygiene",
		Description: "Package names must be plain package-manager identifiers",
		Rego: `package dotfix.policies.hygiene

import rego.v1

deny contains violation if {
	some pkg in input.manifest.packages
	not regex.match("^[a-zA-Z0-9@._+-]+$", pkg.name)
	violation := {
		"message": sprintf("package name %q is not a plain package identifier", [pkg.name]),
		"severity": "error",
	}
}

deny contains violation if {
	some pkg in input.manifest.packages
	startswith(pkg.name, "-")
	violation := {
		"message": sprintf("package name %q must not begin with a dash", [pkg.name]),
		"severity": "error",
	}
}
`,
	}
}
