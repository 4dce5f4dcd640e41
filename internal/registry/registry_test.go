package registry_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/registry"
)

const (
	testConnectorNameConstant = "stub"
	testOperatorNameConstant  = "upper"
	testFunctionNameConstant  = "constant"
)

type stubConnector struct{}

func (stubConnector) Connect(context.Context, connector.Configuration) error { return nil }
func (stubConnector) DatabaseName() string                                   { return "stub" }
func (stubConnector) ValidateSourceSpecification(connector.SourceSpecification) []connector.ValidationError {
	return nil
}
func (stubConnector) ValidateTargetSpecification(connector.TargetSpecification) []connector.ValidationError {
	return nil
}
func (stubConnector) CountMatching(context.Context, connector.SourceSpecification) (int64, error) {
	return 0, nil
}
func (stubConnector) FetchBatch(context.Context, connector.SourceSpecification, int, int) ([]connector.Record, error) {
	return nil, nil
}
func (stubConnector) Store(context.Context, connector.TargetSpecification, connector.Record) error {
	return nil
}
func (stubConnector) Close(context.Context) error { return nil }

func TestRegistryLifecycle(testInstance *testing.T) {
	registryInstance := registry.New()

	require.False(testInstance, registryInstance.HasConnector(testConnectorNameConstant))
	require.NoError(testInstance, registryInstance.RegisterConnector(testConnectorNameConstant, func() connector.Connector { return stubConnector{} }))
	require.True(testInstance, registryInstance.HasConnector(testConnectorNameConstant))

	connectorInstance, available := registryInstance.NewConnector(testConnectorNameConstant)
	require.True(testInstance, available)
	require.Equal(testInstance, "stub", connectorInstance.DatabaseName())

	registryInstance.UnregisterConnector(testConnectorNameConstant)
	require.False(testInstance, registryInstance.HasConnector(testConnectorNameConstant))
	require.Contains(testInstance, registryInstance.ConnectorNames(), testConnectorNameConstant)

	registryInstance.UnregisterConnector(testConnectorNameConstant)
	require.False(testInstance, registryInstance.HasConnector(testConnectorNameConstant))

	_, stillAvailable := registryInstance.NewConnector(testConnectorNameConstant)
	require.False(testInstance, stillAvailable)
}

func TestRegistryRejectsInvalidRegistrations(testInstance *testing.T) {
	registryInstance := registry.New()

	require.ErrorIs(testInstance, registryInstance.RegisterOperator("  ", func(connector.Record, string, any) {}), registry.ErrInvalidRegistration)
	require.ErrorIs(testInstance, registryInstance.RegisterOperator(testOperatorNameConstant, nil), registry.ErrInvalidRegistration)
	require.ErrorIs(testInstance, registryInstance.RegisterFunction(testFunctionNameConstant, nil), registry.ErrInvalidRegistration)
	require.ErrorIs(testInstance, registryInstance.RegisterConnector("", nil), registry.ErrInvalidRegistration)
	require.Empty(testInstance, registryInstance.OperatorNames())
}

func TestRegistryLoadModule(testInstance *testing.T) {
	registryInstance := registry.New()

	loadError := registryInstance.LoadModule(registry.Module{
		Name: "custom",
		Connectors: map[string]connector.Factory{
			testConnectorNameConstant: func() connector.Connector { return stubConnector{} },
		},
		Operators: map[string]registry.Operator{
			testOperatorNameConstant: func(record connector.Record, fieldName string, _ any) { record[fieldName] = "UPPER" },
		},
		Functions: map[string]registry.Function{
			testFunctionNameConstant: func() (any, error) { return 42, nil },
		},
	})
	require.NoError(testInstance, loadError)
	require.True(testInstance, registryInstance.HasConnector(testConnectorNameConstant))
	require.True(testInstance, registryInstance.HasOperator(testOperatorNameConstant))
	require.True(testInstance, registryInstance.HasFunction(testFunctionNameConstant))

	registryInstance.UnregisterFunction(testFunctionNameConstant)
	_, functionAvailable := registryInstance.Function(testFunctionNameConstant)
	require.False(testInstance, functionAvailable)

	invalidModuleError := registryInstance.LoadModule(registry.Module{Name: "broken", Operators: map[string]registry.Operator{"broken": nil}})
	require.ErrorIs(testInstance, invalidModuleError, registry.ErrInvalidRegistration)
	require.Contains(testInstance, invalidModuleError.Error(), "module broken")
}

func TestDefaultRegistryBuiltins(testInstance *testing.T) {
	registryInstance := registry.NewDefault()

	for _, operatorName := range []string{"set", "unset", "rename", "setDefault", "setIfEmpty", "unsetIfEmpty", "increment", "multiply", "min", "max", "addToSet", "push", "pop", "pull", "pullAll", "$inc", "$default"} {
		require.True(testInstance, registryInstance.HasOperator(operatorName), operatorName)
	}
	require.False(testInstance, registryInstance.HasOperator("explode"))

	for _, functionName := range []string{"uuid.v1", "uuid.v4", "uuid.v6", "uuid.v7", "objectId", "objectId.hex", "date", "timestamp"} {
		require.True(testInstance, registryInstance.HasFunction(functionName), functionName)
	}
}

func TestBuiltinFunctionsProduceFreshValues(testInstance *testing.T) {
	registryInstance := registry.NewDefault()

	uuidFunction, available := registryInstance.Function("uuid.v4")
	require.True(testInstance, available)

	firstValue, firstError := uuidFunction()
	require.NoError(testInstance, firstError)
	secondValue, secondError := uuidFunction()
	require.NoError(testInstance, secondError)

	require.NotEqual(testInstance, firstValue, secondValue)
	parsed, parseError := uuid.Parse(firstValue.(string))
	require.NoError(testInstance, parseError)
	require.Equal(testInstance, uuid.Version(4), parsed.Version())

	objectIDHexFunction, _ := registryInstance.Function("objectId.hex")
	objectIDValue, objectIDError := objectIDHexFunction()
	require.NoError(testInstance, objectIDError)
	require.Len(testInstance, objectIDValue.(string), 24)
}

func TestOperatorKindLookup(testInstance *testing.T) {
	operatorKind, exists := registry.ParseOperatorKind("$inc")
	require.True(testInstance, exists)
	require.Equal(testInstance, registry.OperatorIncrement, operatorKind)
	require.Equal(testInstance, "increment", operatorKind.String())

	_, unknownExists := registry.ParseOperatorKind("explode")
	require.False(testInstance, unknownExists)
	require.Nil(testInstance, registry.OperatorKind(0).Operator())

	functionKind, functionExists := registry.ParseFunctionKind("date")
	require.True(testInstance, functionExists)
	require.Equal(testInstance, "date", functionKind.String())
}

func TestFunctionPlaceholder(testInstance *testing.T) {
	functionName, isPlaceholder := registry.FunctionPlaceholder("fn.uuid.v4")
	require.True(testInstance, isPlaceholder)
	require.Equal(testInstance, "uuid.v4", functionName)

	_, literalIsPlaceholder := registry.FunctionPlaceholder("uuid.v4")
	require.False(testInstance, literalIsPlaceholder)

	_, numberIsPlaceholder := registry.FunctionPlaceholder(7)
	require.False(testInstance, numberIsPlaceholder)
}
