package domain

import "go.trai.ch/zerr"

var (
	// ErrDuplicateDefinition is returned when a property or option is defined twice.
	ErrDuplicateDefinition = zerr.New("duplicate definition")

	// ErrPropertyCycle is returned when property expansion loops back on itself.
	ErrPropertyCycle = zerr.New("property expansion cycle")

	// ErrPropertyUndefined is returned when a property reference has no definition.
	ErrPropertyUndefined = zerr.New("property undefined")

	// ErrOptionsPremature is returned when effective options are read before freeze.
	ErrOptionsPremature = zerr.New("options read before freeze")

	// ErrOptionsFrozen is returned when a mutation is attempted after freeze.
	ErrOptionsFrozen = zerr.New("options already frozen")

	// ErrInvalidGlob is returned when a path-set's glob pattern is malformed
	// or uses a trailing "**/*/" form.
	ErrInvalidGlob = zerr.New("invalid glob pattern")

	// ErrRelativePathAfterFreeze is returned when a path-set tries to resolve
	// a build-file-relative path after the owning graph has frozen.
	ErrRelativePathAfterFreeze = zerr.New("relative path resolved after freeze")

	// ErrTargetAlreadyExists is returned when two targets register the same name.
	ErrTargetAlreadyExists = zerr.New("target already exists")

	// ErrTargetNotFound is returned when a requested target is not in the graph.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrInvalidTargetName is returned when a target name contains a reserved
	// character (one of `<>"|?*`; ':' is allowed for project namespacing,
	// though the config loader rejects it in a build file's own target names).
	ErrInvalidTargetName = zerr.New("invalid target name")

	// ErrInvalidOutputPath is returned when a declared output path contains
	// a reserved character (one of `<>:"|?*`).
	ErrInvalidOutputPath = zerr.New("invalid output path")

	// ErrDuplicateOutput is returned when two targets normalize to the same
	// output path.
	ErrDuplicateOutput = zerr.New("duplicate output path")

	// ErrNestedOutput is returned when a target's output nests under another
	// target's file output (only directory outputs may contain nested outputs).
	ErrNestedOutput = zerr.New("output nested under a non-directory target")

	// ErrGraphAlreadyFrozen is returned when Register is called after Freeze.
	ErrGraphAlreadyFrozen = zerr.New("graph already frozen")

	// ErrGraphNotFrozen is returned when Select is called before Freeze.
	ErrGraphNotFrozen = zerr.New("graph not frozen")

	// ErrCyclicDependency is returned when the resolver finds a strongly
	// connected component of size greater than one, or a target that depends
	// on itself, in the target DAG.
	ErrCyclicDependency = zerr.New("cyclic dependency")

	// ErrUndeclaredDirectoryDependency is returned when a selected path falls
	// beneath a known directory output but wasn't reached through a
	// DirOfTargetPathSet.
	ErrUndeclaredDirectoryDependency = zerr.New("undeclared directory dependency")

	// ErrToolNotFound is returned when a target or project references a tool
	// alias that no workspace or project declares.
	ErrToolNotFound = zerr.New("tool not found")

	// ErrUnsupportedArchitecture is returned when a resolved tool has no
	// build for the running system.
	ErrUnsupportedArchitecture = zerr.New("unsupported architecture")

	// ErrBuildExecutionFailed is the umbrella sentinel joined into a run's
	// returned error whenever at least one target failed.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrInvalidToolSpec is returned when a tool spec string is malformed
	// (expected "package@version").
	ErrInvalidToolSpec = zerr.New("invalid tool spec")

	// ErrToolCacheMiss is returned internally by a resolver/environment cache
	// lookup when no entry exists; adapters translate it into a live fetch.
	ErrToolCacheMiss = zerr.New("tool cache miss")

	// ErrToolResolutionFailed is returned when a tool alias/version cannot be
	// resolved to a reproducible revision by the upstream resolver service.
	ErrToolResolutionFailed = zerr.New("tool resolution failed")

	// ErrToolInstallFailed is returned when a resolved tool revision cannot
	// be materialized into a usable store path.
	ErrToolInstallFailed = zerr.New("tool install failed")
)
