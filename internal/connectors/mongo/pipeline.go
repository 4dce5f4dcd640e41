package mongo

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/temirov/dbmigrator/internal/connector"
)

func queryFilter(query map[string]any) bson.M {
	if len(query) == 0 {
		return bson.M{}
	}
	return bson.M(query)
}

// countPipeline copies the aggregate and replaces or appends its $count stage.
func countPipeline(aggregate []map[string]any) []bson.M {
	return withStage(copyPipeline(aggregate), countStageOperatorConstant, countFieldNameConstant)
}

// pagedPipeline copies the aggregate and replaces or appends its $skip and $limit stages.
func pagedPipeline(aggregate []map[string]any, skip int, limit int) []bson.M {
	pipeline := withStage(copyPipeline(aggregate), skipStageOperatorConstant, int64(skip))
	return withStage(pipeline, limitStageOperatorConstant, int64(limit))
}

func copyPipeline(aggregate []map[string]any) []bson.M {
	pipeline := make([]bson.M, 0, len(aggregate)+2)
	for _, stage := range aggregate {
		pipeline = append(pipeline, bson.M(connector.Record(stage).Clone()))
	}
	return pipeline
}

func withStage(pipeline []bson.M, operator string, value any) []bson.M {
	for stageIndex, stage := range pipeline {
		if _, present := stage[operator]; present {
			pipeline[stageIndex] = bson.M{operator: value}
			return pipeline
		}
	}
	return append(pipeline, bson.M{operator: value})
}

func isPipelineStage(stage map[string]any) bool {
	if len(stage) != 1 {
		return false
	}
	for operator := range stage {
		return strings.HasPrefix(operator, stageOperatorPrefixConstant)
	}
	return false
}

// normalizeDocument converts driver document and array types into plain maps and slices
// so operators see the same shapes regardless of the source store.
func normalizeDocument(document bson.M) connector.Record {
	record := make(connector.Record, len(document))
	for fieldName, fieldValue := range document {
		record[fieldName] = normalizeValue(fieldValue)
	}
	return record
}

func normalizeValue(value any) any {
	switch typedValue := value.(type) {
	case bson.M:
		return map[string]any(normalizeDocument(typedValue))
	case map[string]any:
		return map[string]any(normalizeDocument(bson.M(typedValue)))
	case bson.D:
		normalized := make(map[string]any, len(typedValue))
		for _, element := range typedValue {
			normalized[element.Key] = normalizeValue(element.Value)
		}
		return normalized
	case bson.A:
		return normalizeArray(typedValue)
	case []any:
		return normalizeArray(typedValue)
	default:
		return value
	}
}

func normalizeArray(elements []any) []any {
	normalized := make([]any, len(elements))
	for elementIndex, element := range elements {
		normalized[elementIndex] = normalizeValue(element)
	}
	return normalized
}
