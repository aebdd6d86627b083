// Package config implements kiln's YAML build-file DSL: loading a
// standalone kiln.yaml or a kiln.work.yaml workspace into a domain.Graph.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"sort"
	"strings"

	"go.kiln.build/kiln/internal/adapters/fs"
	"go.kiln.build/kiln/internal/core/domain"
	"go.kiln.build/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader over the YAML DSL.
type Loader struct {
	Logger   ports.Logger
	walker   *fs.Walker
	resolver *fs.Resolver
}

// NewLoader creates a Loader with the collaborators it needs to turn
// declared "input:" patterns into PathSet values.
func NewLoader(logger ports.Logger, walker *fs.Walker, resolver *fs.Resolver) *Loader {
	return &Loader{Logger: logger, walker: walker, resolver: resolver}
}

// Mode is which of the two DSL shapes Load found.
type Mode string

const (
	ModeWorkspace  Mode = "workspace"
	ModeStandalone Mode = "standalone"
)

var validProjectName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Load finds and parses the build file rooted at or above cwd, returning
// the target graph, the PropertyStore its "properties:" blocks defined
// (threaded into buildctx.Expand during execution), and the unfrozen
// OptionStore holding its "options:" declarations.
func (l *Loader) Load(cwd string) (*domain.Graph, *domain.PropertyStore, *domain.OptionStore, error) {
	configPath, mode, err := l.findConfiguration(cwd)
	if err != nil {
		return nil, nil, nil, err
	}

	switch mode {
	case ModeStandalone:
		return l.loadBuildfile(configPath)
	case ModeWorkspace:
		return l.loadWorkfile(configPath)
	default:
		return nil, nil, nil, zerr.New("unrecognized configuration mode")
	}
}

func (l *Loader) findConfiguration(cwd string) (string, Mode, error) {
	currentDir := cwd
	var standaloneCandidate string

	for {
		workPath := filepath.Join(currentDir, domain.WorkspaceFileName)
		if _, err := os.Stat(workPath); err == nil {
			return workPath, ModeWorkspace, nil
		}

		if standaloneCandidate == "" {
			buildPath := filepath.Join(currentDir, domain.BuildFileName)
			if _, err := os.Stat(buildPath); err == nil {
				standaloneCandidate = buildPath
			}
		}

		parent := filepath.Dir(currentDir)
		if parent == currentDir {
			break
		}
		currentDir = parent
	}

	if standaloneCandidate != "" {
		return standaloneCandidate, ModeStandalone, nil
	}
	return "", "", zerr.With(zerr.New("could not find kiln.yaml or kiln.work.yaml"), "cwd", cwd)
}

func (l *Loader) loadBuildfile(configPath string) (*domain.Graph, *domain.PropertyStore, *domain.OptionStore, error) {
	var bf Buildfile
	if err := readYAML(configPath, &bf); err != nil {
		return nil, nil, nil, err
	}

	if bf.Project != "" {
		l.Logger.Warn(fmt.Sprintf("'project' defined in %s has no effect in standalone mode", domain.BuildFileName))
	}

	root := resolveRoot(configPath, bf.Root)
	g := domain.NewGraph()

	props := domain.NewPropertyStore()
	if err := definePropertiesFromDTO(props, bf.Properties, root); err != nil {
		return nil, nil, nil, err
	}

	opts := domain.NewOptionStore()
	if err := defineGlobalOptions(opts, bf.Options); err != nil {
		return nil, nil, nil, err
	}

	targetNames := make(map[string]bool, len(bf.Targets))
	for name := range bf.Targets {
		targetNames[name] = true
	}

	for name, dto := range bf.Targets {
		if err := validateTargetName(name); err != nil {
			return nil, nil, nil, err
		}
		for _, dep := range dto.DependsOn {
			if !targetNames[dep] {
				return nil, nil, nil, zerr.With(domain.ErrTargetNotFound, "missing_dependency", dep)
			}
		}

		tools, err := resolveToolSpecs(dto.Tools, bf.Tools)
		if err != nil {
			return nil, nil, nil, zerr.With(err, "target", name)
		}

		target, err := l.buildTarget(name, dto, root, dto.DependsOn, tools, domain.DefaultExclude, opts)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := g.Register(target); err != nil {
			return nil, nil, nil, err
		}
	}

	return g, props, opts, nil
}

func (l *Loader) loadWorkfile(configPath string) (*domain.Graph, *domain.PropertyStore, *domain.OptionStore, error) {
	var wf Workfile
	if err := readYAML(configPath, &wf); err != nil {
		return nil, nil, nil, err
	}

	workspaceRoot := resolveRoot(configPath, wf.Root)
	g := domain.NewGraph()
	props := domain.NewPropertyStore()
	opts := domain.NewOptionStore()

	projectPaths, err := l.resolveProjectPaths(workspaceRoot, wf.Projects)
	if err != nil {
		return nil, nil, nil, err
	}

	exclude := excludeFromPatterns(wf.Excludes)

	projectNames := make(map[string]string)
	for _, projectPath := range projectPaths {
		if err := l.processProject(g, props, opts, workspaceRoot, projectPath, projectNames, wf.Tools, exclude); err != nil {
			return nil, nil, nil, err
		}
	}

	return g, props, opts, nil
}

func (l *Loader) resolveProjectPaths(workspaceRoot string, patterns []string) ([]string, error) {
	unique := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(workspaceRoot, pattern))
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "glob pattern failed"), "pattern", pattern)
		}
		for _, m := range matches {
			unique[m] = struct{}{}
		}
	}
	paths := make([]string, 0, len(unique))
	for p := range unique {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (l *Loader) processProject(
	g *domain.Graph,
	props *domain.PropertyStore,
	opts *domain.OptionStore,
	workspaceRoot, projectPath string,
	projectNames map[string]string,
	workspaceTools map[string]string,
	exclude domain.ExcludePredicate,
) error {
	relPath, _ := filepath.Rel(workspaceRoot, projectPath)

	info, err := os.Stat(projectPath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	buildPath := filepath.Join(projectPath, domain.BuildFileName)
	if _, statErr := os.Stat(buildPath); os.IsNotExist(statErr) {
		l.Logger.Warn(fmt.Sprintf("%s missing in project %s, skipping", domain.BuildFileName, relPath))
		return nil
	}

	var bf Buildfile
	if err := readYAML(buildPath, &bf); err != nil {
		return zerr.With(err, "project", relPath)
	}

	if bf.Project == "" {
		return zerr.With(zerr.New("missing project name"), "directory", relPath)
	}
	if !validProjectName.MatchString(bf.Project) {
		return zerr.With(zerr.New("project name must be alphanumeric, hyphen or underscore"), "project", bf.Project)
	}
	if existing, exists := projectNames[bf.Project]; exists {
		err := zerr.With(zerr.New("duplicate project name"), "project", bf.Project)
		err = zerr.With(err, "first_occurrence", existing)
		return zerr.With(err, "duplicate_at", relPath)
	}
	projectNames[bf.Project] = relPath

	if bf.Root != "" {
		l.Logger.Warn(fmt.Sprintf("'root' defined in %s is ignored in workspace mode", relPath))
	}

	resolvedTools := mergeTools(workspaceTools, bf.Tools)

	if err := definePropertiesFromDTO(props, bf.Properties, projectPath); err != nil {
		return zerr.With(err, "project", relPath)
	}

	for name, dto := range bf.Targets {
		if err := validateTargetName(name); err != nil {
			return err
		}

		namespacedName := fmt.Sprintf("%s:%s", bf.Project, name)
		namespacedDeps := namespaceDependencies(bf.Project, dto.DependsOn)

		tools, err := resolveToolSpecs(dto.Tools, resolvedTools)
		if err != nil {
			return zerr.With(err, "target", namespacedName)
		}

		// A project-level options: block scopes to the project's own
		// targets rather than the global layer, so two projects declaring
		// the same option name don't collide across the workspace. A
		// target's own options: entries win over the project's.
		dtoForOptions := *dto
		dtoForOptions.Options = mergeOptions(bf.Options, dto.Options)

		target, err := l.buildTarget(namespacedName, &dtoForOptions, projectPath, namespacedDeps, tools, exclude, opts)
		if err != nil {
			return err
		}
		if err := g.Register(target); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loader) buildTarget(
	name string,
	dto *TargetDTO,
	baseDir string,
	deps []string,
	tools map[string]domain.ToolSpec,
	exclude domain.ExcludePredicate,
	opts *domain.OptionStore,
) (*domain.Target, error) {
	inputs, err := l.buildPathSets(dto.Input, baseDir, exclude)
	if err != nil {
		return nil, zerr.With(err, "target", name)
	}

	for optName, optValue := range dto.Options {
		if err := opts.DefineOption(domain.NewInternedString(name), optName, optValue); err != nil {
			return nil, zerr.With(err, "target", name)
		}
	}

	// Outputs are anchored to the owning build file's directory, the same
	// way input patterns are, so two workspace projects declaring
	// output: "bin/app" land in their own trees instead of colliding at
	// the workspace root.
	outputs := canonicalizeStrings(absUnderAll(baseDir, dto.Target))
	primary := dto.Output
	if primary != "" {
		primary = absUnder(baseDir, primary)
	}
	if primary == "" && len(outputs) > 0 {
		primary = outputs[0]
	}
	if primary == "" {
		// A command-only target declares no file output; its notional
		// output path is derived from the name, with the project:target
		// separator turned into a path separator so graph freeze's
		// reserved-character validation holds.
		primary = filepath.Join(baseDir, strings.ReplaceAll(name, ":", string(filepath.Separator)))
	}

	outputKind := domain.OutputFile
	if dto.OutputIsDir {
		outputKind = domain.OutputDirectory
	}

	tags := make([]domain.Tag, 0, len(dto.Tags))
	for _, t := range dto.Tags {
		tags = append(tags, domain.NewTag(t))
	}

	workingDir := resolveWorkingDir(baseDir, dto.WorkingDir)

	return &domain.Target{
		Name:               domain.NewInternedString(name),
		Kind:               dto.Kind,
		Output:             outputKind,
		PrimaryOutput:      primary,
		Tags:               tags,
		Priority:           dto.Priority,
		Command:            dto.Cmd,
		Environment:        dto.Environment,
		Tools:              tools,
		WorkingDir:         workingDir,
		Inputs:             inputs,
		Outputs:            outputs,
		DependsOn:          internTargetNames(deps),
		DisableInFullBuild: dto.DisableInFull,
		FailureRetries:     dto.FailureRetries,
		CleanOnRebuild:     dto.CleanOnRebuild,
		StampFile:          dto.StampFile,
	}, nil
}

func (l *Loader) buildPathSets(patterns []string, baseDir string, exclude domain.ExcludePredicate) ([]domain.PathSet, error) {
	sets := make([]domain.PathSet, 0, len(patterns))
	for _, pattern := range patterns {
		switch {
		case strings.HasSuffix(pattern, "/"):
			sets = append(sets, domain.DirPathSet{Root: filepath.Join(baseDir, pattern), Exclude: exclude, Warn: l.Logger.Warn}.
				WithWalker(l.walker.WalkFilesSlice))
		case strings.ContainsAny(pattern, "*?"):
			gs, err := domain.NewGlobPathSet(baseDir, pattern, exclude)
			if err != nil {
				return nil, err
			}
			gs.Warn = l.Logger.Warn
			sets = append(sets, gs.WithResolver(l.resolver.Glob))
		default:
			sets = append(sets, domain.StaticPathSet{Paths: []string{filepath.Join(baseDir, pattern)}, Warn: l.Logger.Warn})
		}
	}
	return sets, nil
}

// excludeFromPatterns layers a workspace's declared excludes: over the
// default global exclude. Each pattern is matched against both the
// candidate's root-relative path and its base name.
func excludeFromPatterns(patterns []string) domain.ExcludePredicate {
	if len(patterns) == 0 {
		return domain.DefaultExclude
	}
	return func(relPath string) bool {
		if domain.DefaultExclude(relPath) {
			return true
		}
		base := filepath.Base(relPath)
		for _, p := range patterns {
			if ok, _ := filepath.Match(p, relPath); ok {
				return true
			}
			if ok, _ := filepath.Match(p, base); ok {
				return true
			}
		}
		return false
	}
}

func definePropertiesFromDTO(props *domain.PropertyStore, dtos map[string]PropertyDTO, definingDir string) error {
	for name, dto := range dtos {
		kind := domain.PropertyString
		if dto.Kind == "path" {
			kind = domain.PropertyPath
		}
		if err := props.DefineProperty(name, kind, dto.Default, definingDir); err != nil {
			return err
		}
	}
	return nil
}

func namespaceDependencies(project string, deps []string) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if strings.Contains(d, ":") {
			out = append(out, d)
		} else {
			out = append(out, fmt.Sprintf("%s:%s", project, d))
		}
	}
	return out
}

func absUnder(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}

func absUnderAll(baseDir string, paths []string) []string {
	if len(paths) == 0 {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = absUnder(baseDir, p)
	}
	return out
}

func defineGlobalOptions(opts *domain.OptionStore, options map[string]any) error {
	for name, value := range options {
		if err := opts.DefineOption(domain.InternedString{}, name, value); err != nil {
			return err
		}
	}
	return nil
}

func mergeOptions(projectOpts, targetOpts map[string]any) map[string]any {
	if len(projectOpts) == 0 {
		return targetOpts
	}
	merged := make(map[string]any, len(projectOpts)+len(targetOpts))
	for k, v := range projectOpts {
		merged[k] = v
	}
	for k, v := range targetOpts {
		merged[k] = v
	}
	return merged
}

func mergeTools(workspaceTools, projectTools map[string]string) map[string]string {
	result := make(map[string]string, len(workspaceTools)+len(projectTools))
	for k, v := range workspaceTools {
		result[k] = v
	}
	for k, v := range projectTools {
		result[k] = v
	}
	return result
}

func resolveToolSpecs(aliases []string, resolved map[string]string) (map[string]domain.ToolSpec, error) {
	if len(aliases) == 0 {
		return nil, nil
	}
	out := make(map[string]domain.ToolSpec, len(aliases))
	for _, alias := range aliases {
		version, ok := resolved[alias]
		if !ok {
			return nil, zerr.With(domain.ErrToolNotFound, "tool_alias", alias)
		}
		out[alias] = domain.ToolSpec{Alias: alias, Version: version}
	}
	return out, nil
}

func validateTargetName(name string) error {
	if name == "all" || name == "full" {
		return zerr.With(zerr.New("target name is reserved"), "target", name)
	}
	if strings.Contains(name, ":") {
		return zerr.With(domain.ErrInvalidTargetName, "target", name)
	}
	return nil
}

func internTargetNames(names []string) []domain.InternedString {
	if len(names) == 0 {
		return nil
	}
	out := make([]domain.InternedString, 0, len(names))
	for _, n := range names {
		out = append(out, domain.NewInternedString(n))
	}
	return out
}

func canonicalizeStrings(strs []string) []string {
	if len(strs) == 0 {
		return nil
	}
	sorted := make([]string, len(strs))
	copy(sorted, strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func resolveRoot(configPath, configuredRoot string) string {
	configDir := filepath.Dir(configPath)
	if configuredRoot == "" {
		return filepath.Clean(configDir)
	}
	if filepath.IsAbs(configuredRoot) {
		return filepath.Clean(configuredRoot)
	}
	return filepath.Clean(filepath.Join(configDir, configuredRoot))
}

func resolveWorkingDir(baseDir, configured string) string {
	if configured == "" {
		return baseDir
	}
	if filepath.IsAbs(configured) {
		return filepath.Clean(configured)
	}
	return filepath.Clean(filepath.Join(baseDir, configured))
}

func readYAML[T any](path string, target *T) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is constructed by the loader
	if err != nil {
		return zerr.Wrap(err, "failed to read config file")
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return zerr.Wrap(err, "failed to parse config file")
	}
	return nil
}
