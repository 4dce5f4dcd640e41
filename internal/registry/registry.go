package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/dbmigrator/internal/connector"
)

const (
	invalidRegistrationMessageConstant      = "invalid registration"
	emptyRegistrationNameTemplateConstant   = "%s name must be non-empty"
	missingImplementationTemplateConstant   = "%s %s has no implementation"
	moduleRegistrationErrorTemplateConstant = "module %s: %w"
	registrationCategoryConnectorConstant   = "connector"
	registrationCategoryOperatorConstant    = "operator"
	registrationCategoryFunctionConstant    = "function"
	functionPlaceholderPrefixConstant       = "fn."
	coreModuleNameConstant                  = "core"
)

// ErrInvalidRegistration reports an empty name or nil implementation passed to a Register call.
var ErrInvalidRegistration = errors.New(invalidRegistrationMessageConstant)

// Operator mutates one field of a record in place. Operators never fail; arguments of
// the wrong type leave the record unchanged.
type Operator func(record connector.Record, fieldName string, argument any)

// Function produces a fresh value each time a placeholder referencing it is resolved.
type Function func() (any, error)

// Module bundles named contributions loaded into a Registry in one call.
type Module struct {
	Name       string
	Connectors map[string]connector.Factory
	Operators  map[string]Operator
	Functions  map[string]Function
}

// Registry maps names to connector factories, operators, and functions.
//
// Unregistering keeps the name with an absent marker, so Has reports false while the
// key still shows up in Names.
type Registry struct {
	connectors map[string]connector.Factory
	operators  map[string]Operator
	functions  map[string]Function
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		connectors: make(map[string]connector.Factory),
		operators:  make(map[string]Operator),
		functions:  make(map[string]Function),
	}
}

// NewDefault constructs a Registry preloaded with the built-in operators and functions.
func NewDefault() *Registry {
	registry := New()
	if loadError := registry.LoadModule(CoreModule()); loadError != nil {
		panic(loadError)
	}
	return registry
}

// CoreModule bundles every built-in operator, including update-style aliases, and every built-in function.
func CoreModule() Module {
	operators := make(map[string]Operator, len(operatorKindByName))
	for operatorName, operatorKind := range operatorKindByName {
		operators[operatorName] = operatorKind.Operator()
	}

	functions := make(map[string]Function, len(functionKindByName))
	for functionName, functionKind := range functionKindByName {
		functions[functionName] = functionKind.Function()
	}

	return Module{Name: coreModuleNameConstant, Operators: operators, Functions: functions}
}

// LoadModule registers every contribution of the module.
func (registry *Registry) LoadModule(module Module) error {
	for connectorName, factory := range module.Connectors {
		if registrationError := registry.RegisterConnector(connectorName, factory); registrationError != nil {
			return fmt.Errorf(moduleRegistrationErrorTemplateConstant, module.Name, registrationError)
		}
	}
	for operatorName, operator := range module.Operators {
		if registrationError := registry.RegisterOperator(operatorName, operator); registrationError != nil {
			return fmt.Errorf(moduleRegistrationErrorTemplateConstant, module.Name, registrationError)
		}
	}
	for functionName, function := range module.Functions {
		if registrationError := registry.RegisterFunction(functionName, function); registrationError != nil {
			return fmt.Errorf(moduleRegistrationErrorTemplateConstant, module.Name, registrationError)
		}
	}
	return nil
}

// RegisterConnector adds or replaces a connector factory.
func (registry *Registry) RegisterConnector(name string, factory connector.Factory) error {
	trimmedName, nameError := validateRegistration(registrationCategoryConnectorConstant, name, factory == nil)
	if nameError != nil {
		return nameError
	}
	registry.connectors[trimmedName] = factory
	return nil
}

// UnregisterConnector marks the connector as absent.
func (registry *Registry) UnregisterConnector(name string) {
	registry.connectors[strings.TrimSpace(name)] = nil
}

// HasConnector reports whether a usable connector factory is registered under the name.
func (registry *Registry) HasConnector(name string) bool {
	_, available := registry.Connector(name)
	return available
}

// Connector returns the factory registered under the name.
func (registry *Registry) Connector(name string) (connector.Factory, bool) {
	factory, exists := registry.connectors[strings.TrimSpace(name)]
	if !exists || factory == nil {
		return nil, false
	}
	return factory, true
}

// NewConnector instantiates a fresh connector from the named factory.
func (registry *Registry) NewConnector(name string) (connector.Connector, bool) {
	factory, available := registry.Connector(name)
	if !available {
		return nil, false
	}
	return factory(), true
}

// RegisterOperator adds or replaces a field operator.
func (registry *Registry) RegisterOperator(name string, operator Operator) error {
	trimmedName, nameError := validateRegistration(registrationCategoryOperatorConstant, name, operator == nil)
	if nameError != nil {
		return nameError
	}
	registry.operators[trimmedName] = operator
	return nil
}

// UnregisterOperator marks the operator as absent.
func (registry *Registry) UnregisterOperator(name string) {
	registry.operators[strings.TrimSpace(name)] = nil
}

// HasOperator reports whether a usable operator is registered under the name.
func (registry *Registry) HasOperator(name string) bool {
	_, available := registry.Operator(name)
	return available
}

// Operator returns the operator registered under the name.
func (registry *Registry) Operator(name string) (Operator, bool) {
	operator, exists := registry.operators[strings.TrimSpace(name)]
	if !exists || operator == nil {
		return nil, false
	}
	return operator, true
}

// RegisterFunction adds or replaces a named value function.
func (registry *Registry) RegisterFunction(name string, function Function) error {
	trimmedName, nameError := validateRegistration(registrationCategoryFunctionConstant, name, function == nil)
	if nameError != nil {
		return nameError
	}
	registry.functions[trimmedName] = function
	return nil
}

// UnregisterFunction marks the function as absent.
func (registry *Registry) UnregisterFunction(name string) {
	registry.functions[strings.TrimSpace(name)] = nil
}

// HasFunction reports whether a usable function is registered under the name.
func (registry *Registry) HasFunction(name string) bool {
	_, available := registry.Function(name)
	return available
}

// Function returns the function registered under the name.
func (registry *Registry) Function(name string) (Function, bool) {
	function, exists := registry.functions[strings.TrimSpace(name)]
	if !exists || function == nil {
		return nil, false
	}
	return function, true
}

// ConnectorNames lists every connector key, including absent markers.
func (registry *Registry) ConnectorNames() []string {
	return sortedKeys(registry.connectors)
}

// OperatorNames lists every operator key, including absent markers.
func (registry *Registry) OperatorNames() []string {
	return sortedKeys(registry.operators)
}

// FunctionNames lists every function key, including absent markers.
func (registry *Registry) FunctionNames() []string {
	return sortedKeys(registry.functions)
}

// FunctionPlaceholder extracts the function name from an "fn.<name>" argument.
func FunctionPlaceholder(argument any) (string, bool) {
	argumentString, isString := argument.(string)
	if !isString || !strings.HasPrefix(argumentString, functionPlaceholderPrefixConstant) {
		return "", false
	}
	return strings.TrimPrefix(argumentString, functionPlaceholderPrefixConstant), true
}

func validateRegistration(category string, name string, implementationMissing bool) (string, error) {
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return "", fmt.Errorf("%w: "+emptyRegistrationNameTemplateConstant, ErrInvalidRegistration, category)
	}
	if implementationMissing {
		return "", fmt.Errorf("%w: "+missingImplementationTemplateConstant, ErrInvalidRegistration, category, trimmedName)
	}
	return trimmedName, nil
}
