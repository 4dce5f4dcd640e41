package registry

// OperatorKind enumerates the built-in field operators.
type OperatorKind int

// Built-in operator kinds.
const (
	OperatorSet OperatorKind = iota + 1
	OperatorUnset
	OperatorRename
	OperatorSetDefault
	OperatorSetIfEmpty
	OperatorUnsetIfEmpty
	OperatorIncrement
	OperatorMultiply
	OperatorMin
	OperatorMax
	OperatorAddToSet
	OperatorPush
	OperatorPop
	OperatorPull
	OperatorPullAll
)

var operatorKindNames = map[OperatorKind]string{
	OperatorSet:          "set",
	OperatorUnset:        "unset",
	OperatorRename:       "rename",
	OperatorSetDefault:   "setDefault",
	OperatorSetIfEmpty:   "setIfEmpty",
	OperatorUnsetIfEmpty: "unsetIfEmpty",
	OperatorIncrement:    "increment",
	OperatorMultiply:     "multiply",
	OperatorMin:          "min",
	OperatorMax:          "max",
	OperatorAddToSet:     "addToSet",
	OperatorPush:         "push",
	OperatorPop:          "pop",
	OperatorPull:         "pull",
	OperatorPullAll:      "pullAll",
}

// Update-style spellings accepted as aliases of the canonical names.
var operatorKindAliases = map[string]OperatorKind{
	"$set":          OperatorSet,
	"$unset":        OperatorUnset,
	"$rename":       OperatorRename,
	"$default":      OperatorSetDefault,
	"$setIfEmpty":   OperatorSetIfEmpty,
	"$unsetIfEmpty": OperatorUnsetIfEmpty,
	"$inc":          OperatorIncrement,
	"$mul":          OperatorMultiply,
	"$min":          OperatorMin,
	"$max":          OperatorMax,
	"$addToSet":     OperatorAddToSet,
	"$push":         OperatorPush,
	"$pop":          OperatorPop,
	"$pull":         OperatorPull,
	"$pullAll":      OperatorPullAll,
}

var operatorKindImplementations = map[OperatorKind]Operator{
	OperatorSet:          setOperator,
	OperatorUnset:        unsetOperator,
	OperatorRename:       renameOperator,
	OperatorSetDefault:   setDefaultOperator,
	OperatorSetIfEmpty:   setIfEmptyOperator,
	OperatorUnsetIfEmpty: unsetIfEmptyOperator,
	OperatorIncrement:    incrementOperator,
	OperatorMultiply:     multiplyOperator,
	OperatorMin:          minOperator,
	OperatorMax:          maxOperator,
	OperatorAddToSet:     addToSetOperator,
	OperatorPush:         pushOperator,
	OperatorPop:          popOperator,
	OperatorPull:         pullOperator,
	OperatorPullAll:      pullAllOperator,
}

var operatorKindByName = buildOperatorKindLookup()

func buildOperatorKindLookup() map[string]OperatorKind {
	lookup := make(map[string]OperatorKind, len(operatorKindNames)+len(operatorKindAliases))
	for operatorKind, operatorName := range operatorKindNames {
		lookup[operatorName] = operatorKind
	}
	for aliasName, operatorKind := range operatorKindAliases {
		lookup[aliasName] = operatorKind
	}
	return lookup
}

// ParseOperatorKind resolves a canonical name or alias to its built-in kind.
func ParseOperatorKind(name string) (OperatorKind, bool) {
	operatorKind, exists := operatorKindByName[name]
	return operatorKind, exists
}

// String returns the canonical operator name.
func (kind OperatorKind) String() string {
	if operatorName, exists := operatorKindNames[kind]; exists {
		return operatorName
	}
	return "unknown"
}

// Operator returns the implementation of the built-in kind, or nil for unknown kinds.
func (kind OperatorKind) Operator() Operator {
	return operatorKindImplementations[kind]
}
