package registry

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FunctionKind enumerates the built-in value functions.
type FunctionKind int

// Built-in function kinds.
const (
	FunctionUUIDv1 FunctionKind = iota + 1
	FunctionUUIDv4
	FunctionUUIDv6
	FunctionUUIDv7
	FunctionObjectID
	FunctionObjectIDHex
	FunctionDate
	FunctionTimestamp
)

var functionKindNames = map[FunctionKind]string{
	FunctionUUIDv1:      "uuid.v1",
	FunctionUUIDv4:      "uuid.v4",
	FunctionUUIDv6:      "uuid.v6",
	FunctionUUIDv7:      "uuid.v7",
	FunctionObjectID:    "objectId",
	FunctionObjectIDHex: "objectId.hex",
	FunctionDate:        "date",
	FunctionTimestamp:   "timestamp",
}

var functionKindImplementations = map[FunctionKind]Function{
	FunctionUUIDv1:      uuidFunction(uuid.NewUUID),
	FunctionUUIDv4:      uuidFunction(uuid.NewRandom),
	FunctionUUIDv6:      uuidFunction(uuid.NewV6),
	FunctionUUIDv7:      uuidFunction(uuid.NewV7),
	FunctionObjectID:    objectIDFunction,
	FunctionObjectIDHex: objectIDHexFunction,
	FunctionDate:        dateFunction,
	FunctionTimestamp:   timestampFunction,
}

var functionKindByName = buildFunctionKindLookup()

func buildFunctionKindLookup() map[string]FunctionKind {
	lookup := make(map[string]FunctionKind, len(functionKindNames))
	for functionKind, functionName := range functionKindNames {
		lookup[functionName] = functionKind
	}
	return lookup
}

// ParseFunctionKind resolves a built-in function name.
func ParseFunctionKind(name string) (FunctionKind, bool) {
	functionKind, exists := functionKindByName[name]
	return functionKind, exists
}

// String returns the registered function name.
func (kind FunctionKind) String() string {
	if functionName, exists := functionKindNames[kind]; exists {
		return functionName
	}
	return "unknown"
}

// Function returns the implementation of the built-in kind, or nil for unknown kinds.
func (kind FunctionKind) Function() Function {
	return functionKindImplementations[kind]
}

func uuidFunction(generator func() (uuid.UUID, error)) Function {
	return func() (any, error) {
		generated, generationError := generator()
		if generationError != nil {
			return nil, generationError
		}
		return generated.String(), nil
	}
}

func objectIDFunction() (any, error) {
	return primitive.NewObjectID(), nil
}

func objectIDHexFunction() (any, error) {
	return primitive.NewObjectID().Hex(), nil
}

func dateFunction() (any, error) {
	return time.Now().UTC(), nil
}

func timestampFunction() (any, error) {
	return time.Now().UnixMilli(), nil
}
