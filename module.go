package aotvm

import (
	"fmt"
	"log/slog"
	"slices"
)

// ModuleRecord is the part of an Abstract Module Record the VM consults:
// export resolution for namespaces and environments for live bindings.
type ModuleRecord interface {
	ScriptOrModule
	// GetExportedNames lists export names reachable from the module;
	// exportStarSet collects modules already visited through `export *`.
	GetExportedNames(vm *VM, exportStarSet map[ModuleRecord]bool) ([]string, error)
	// ResolveExport returns nil when the name cannot be resolved and an
	// ambiguous resolution when two `export *` provide it.
	ResolveExport(vm *VM, exportName string, resolveSet *[]ResolveSetEntry) (*ResolvedBinding, error)
	// Environment is nil until the module has been linked.
	Environment() *ModuleEnv
	Namespace() *JSObject
	SetNamespace(ns *JSObject)
}

// NamespaceBindingName is the BindingName of a resolution that denotes the
// whole namespace of a module (`export * as ns from "m"`).
const NamespaceBindingName = "*namespace*"

type ResolvedBinding struct {
	Module      ModuleRecord
	BindingName string
}

var ambiguous = &ResolvedBinding{BindingName: "*ambiguous*"}

func (rb *ResolvedBinding) Ambiguous() bool { return rb == ambiguous }

type ResolveSetEntry struct {
	Module     ModuleRecord
	ExportName string
}

const (
	// ImportName of an ExportEntry for `export * as ns from "m"`
	AllImportName = "*all*"
	// ImportName of an ExportEntry for `export * from "m"`
	AllButDefaultImportName = "*all-but-default*"
	// ImportName of an ImportEntry for `import * as ns from "m"`
	NamespaceImportName = "*namespace-object*"
)

type ExportEntry struct {
	ExportName    string
	ModuleRequest string
	ImportName    string
	LocalName     string
}

type ImportEntry struct {
	ModuleRequest string
	ImportName    string
	LocalName     string
}

// DeclarativeModule is a module record assembled by the host from its
// import and export entries, without source text. Body, when set, runs in
// the module's execution context on Evaluate.
type DeclarativeModule struct {
	Realm       *Realm
	HostDefined any

	ImportEntries         []ImportEntry
	LocalExportEntries    []ExportEntry
	IndirectExportEntries []ExportEntry
	StarExportEntries     []ExportEntry

	// Resolve maps a module request to an already loaded module.
	Resolve func(specifier string) (ModuleRecord, error)
	Body    func(vm *VM, env *ModuleEnv) error

	env       *ModuleEnv
	namespace *JSObject
}

func (*DeclarativeModule) scriptOrModule() {}

func (m *DeclarativeModule) Environment() *ModuleEnv { return m.env }

func (m *DeclarativeModule) Namespace() *JSObject { return m.namespace }

func (m *DeclarativeModule) SetNamespace(ns *JSObject) {
	if m.namespace != nil {
		panic("bug: module namespace created twice")
	}
	m.namespace = ns
}

func (m *DeclarativeModule) requested(vm *VM, specifier string) (ModuleRecord, error) {
	if m.Resolve == nil {
		return nil, vm.ThrowError("SyntaxError", fmt.Sprintf("cannot resolve module %q", specifier))
	}
	mod, err := m.Resolve(specifier)
	if err != nil {
		return nil, err
	}
	if mod == nil {
		return nil, vm.ThrowError("SyntaxError", fmt.Sprintf("cannot resolve module %q", specifier))
	}
	return mod, nil
}

func (m *DeclarativeModule) GetExportedNames(vm *VM, exportStarSet map[ModuleRecord]bool) ([]string, error) {
	if exportStarSet[m] {
		// circular export *
		return nil, nil
	}
	exportStarSet[m] = true

	var exportedNames []string
	for _, e := range m.LocalExportEntries {
		exportedNames = append(exportedNames, e.ExportName)
	}
	for _, e := range m.IndirectExportEntries {
		exportedNames = append(exportedNames, e.ExportName)
	}
	for _, e := range m.StarExportEntries {
		requestedModule, err := m.requested(vm, e.ModuleRequest)
		if err != nil {
			return nil, err
		}
		starNames, err := requestedModule.GetExportedNames(vm, exportStarSet)
		if err != nil {
			return nil, err
		}
		for _, n := range starNames {
			if n != "default" && !slices.Contains(exportedNames, n) {
				exportedNames = append(exportedNames, n)
			}
		}
	}
	return exportedNames, nil
}

func (m *DeclarativeModule) ResolveExport(vm *VM, exportName string, resolveSet *[]ResolveSetEntry) (*ResolvedBinding, error) {
	for _, r := range *resolveSet {
		if r.Module == ModuleRecord(m) && r.ExportName == exportName {
			// circular import request
			return nil, nil
		}
	}
	*resolveSet = append(*resolveSet, ResolveSetEntry{Module: m, ExportName: exportName})

	for _, e := range m.LocalExportEntries {
		if e.ExportName == exportName {
			return &ResolvedBinding{Module: m, BindingName: e.LocalName}, nil
		}
	}
	for _, e := range m.IndirectExportEntries {
		if e.ExportName != exportName {
			continue
		}
		importedModule, err := m.requested(vm, e.ModuleRequest)
		if err != nil {
			return nil, err
		}
		if e.ImportName == AllImportName {
			return &ResolvedBinding{Module: importedModule, BindingName: NamespaceBindingName}, nil
		}
		return importedModule.ResolveExport(vm, e.ImportName, resolveSet)
	}

	if exportName == "default" {
		// a default export cannot come from export *
		return nil, nil
	}

	var starResolution *ResolvedBinding
	for _, e := range m.StarExportEntries {
		importedModule, err := m.requested(vm, e.ModuleRequest)
		if err != nil {
			return nil, err
		}
		resolution, err := importedModule.ResolveExport(vm, exportName, resolveSet)
		if err != nil {
			return nil, err
		}
		if resolution == nil {
			continue
		}
		if resolution.Ambiguous() {
			return ambiguous, nil
		}
		if starResolution == nil {
			starResolution = resolution
			continue
		}
		if resolution.Module != starResolution.Module || resolution.BindingName != starResolution.BindingName {
			return ambiguous, nil
		}
	}
	return starResolution, nil
}

// InitializeEnvironment links the module: it checks indirect exports,
// creates the module environment with its import bindings, and creates an
// uninitialized mutable binding for every local export.
func (m *DeclarativeModule) InitializeEnvironment(vm *VM) error {
	for _, e := range m.IndirectExportEntries {
		resolution, err := m.ResolveExport(vm, e.ExportName, &[]ResolveSetEntry{})
		if err != nil {
			return err
		}
		if resolution == nil || resolution.Ambiguous() {
			return vm.ThrowError("SyntaxError", fmt.Sprintf("indirect export %q cannot be resolved", e.ExportName))
		}
	}

	realm := m.Realm
	if realm == nil {
		realm = vm.CurrentRealm()
	}
	env := NewModuleEnvironment(realm.GlobalEnv)
	m.env = env

	for _, in := range m.ImportEntries {
		importedModule, err := m.requested(vm, in.ModuleRequest)
		if err != nil {
			return err
		}
		if in.ImportName == NamespaceImportName {
			namespace, err := GetModuleNamespace(vm, importedModule)
			if err != nil {
				return err
			}
			mustOK(env.CreateImmutableBinding(vm, in.LocalName, true))
			mustOK(env.InitializeBinding(vm, in.LocalName, namespace))
			continue
		}

		resolution, err := importedModule.ResolveExport(vm, in.ImportName, &[]ResolveSetEntry{})
		if err != nil {
			return err
		}
		if resolution == nil || resolution.Ambiguous() {
			return vm.ThrowError("SyntaxError", fmt.Sprintf("the requested module %q does not provide an export named %q", in.ModuleRequest, in.ImportName))
		}
		if resolution.BindingName == NamespaceBindingName {
			namespace, err := GetModuleNamespace(vm, resolution.Module)
			if err != nil {
				return err
			}
			mustOK(env.CreateImmutableBinding(vm, in.LocalName, true))
			mustOK(env.InitializeBinding(vm, in.LocalName, namespace))
			continue
		}
		env.CreateImportBinding(in.LocalName, resolution.Module, resolution.BindingName)
	}

	for _, e := range m.LocalExportEntries {
		if exists := must(env.HasBinding(vm, e.LocalName)); !exists {
			mustOK(env.CreateMutableBinding(vm, e.LocalName, false))
		}
	}
	return nil
}

// Evaluate runs Body in a fresh module execution context.
func (m *DeclarativeModule) Evaluate(vm *VM) error {
	if m.env == nil {
		panic("bug: module evaluated before InitializeEnvironment")
	}
	if m.Body == nil {
		return nil
	}
	realm := m.Realm
	if realm == nil {
		realm = vm.CurrentRealm()
	}
	moduleContext := &ExecutionContext{
		Realm:               realm,
		ScriptOrModule:      m,
		LexicalEnvironment:  m.env,
		VariableEnvironment: m.env,
	}
	vm.PushContext(moduleContext)
	vm.logger.Debug("evaluate module", slog.Int("exports", len(m.LocalExportEntries)+len(m.IndirectExportEntries)))
	err := m.Body(vm, m.env)
	vm.PopContext(moduleContext)
	return err
}

// GetModuleNamespace creates the namespace object of module on first use and
// returns the same object afterwards.
func GetModuleNamespace(vm *VM, module ModuleRecord) (*JSObject, error) {
	if ns := module.Namespace(); ns != nil {
		return ns, nil
	}
	exportedNames, err := module.GetExportedNames(vm, map[ModuleRecord]bool{})
	if err != nil {
		return nil, err
	}
	var unambiguousNames []string
	for _, name := range exportedNames {
		resolution, err := module.ResolveExport(vm, name, &[]ResolveSetEntry{})
		if err != nil {
			return nil, err
		}
		if resolution != nil && !resolution.Ambiguous() {
			unambiguousNames = append(unambiguousNames, name)
		}
	}
	return ModuleNamespaceCreate(vm, module, unambiguousNames), nil
}
