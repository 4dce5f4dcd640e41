package plan

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/dbmigrator/internal/connector"
)

const (
	planPathRequiredMessageConstant   = "migration plan path must be provided"
	planSourceConnectorMissingMessage = "migration plan source connector must be named"
	planTargetConnectorMissingMessage = "migration plan target connector must be named"
	planLoadErrorTemplateConstant     = "failed to load migration plan: %w"
	planParseErrorTemplateConstant    = "failed to parse migration plan: %w"
)

// LoadPlan reads a migration plan from disk.
func LoadPlan(filePath string) (Plan, error) {
	trimmedPath := strings.TrimSpace(filePath)
	if len(trimmedPath) == 0 {
		return Plan{}, errors.New(planPathRequiredMessageConstant)
	}

	contentBytes, readError := os.ReadFile(trimmedPath)
	if readError != nil {
		return Plan{}, fmt.Errorf(planLoadErrorTemplateConstant, readError)
	}

	return ParsePlan(contentBytes)
}

// ParsePlan decodes a migration plan document. A top-level "plan" wrapper is accepted.
// String configuration values have ${VAR} references expanded from the environment.
// An empty migrations list is not rejected here; validation reports it.
func ParsePlan(contentBytes []byte) (Plan, error) {
	var parsedPlan Plan
	if unmarshalError := yaml.Unmarshal(contentBytes, &parsedPlan); unmarshalError != nil {
		return Plan{}, fmt.Errorf(planParseErrorTemplateConstant, unmarshalError)
	}

	if parsedPlan.isBlank() {
		var wrapper struct {
			Plan Plan `yaml:"plan" json:"plan"`
		}
		if nestedError := yaml.Unmarshal(contentBytes, &wrapper); nestedError == nil && !wrapper.Plan.isBlank() {
			parsedPlan = wrapper.Plan
		}
	}

	parsedPlan.Source.Connector = strings.TrimSpace(parsedPlan.Source.Connector)
	parsedPlan.Target.Connector = strings.TrimSpace(parsedPlan.Target.Connector)
	if len(parsedPlan.Source.Connector) == 0 {
		return Plan{}, errors.New(planSourceConnectorMissingMessage)
	}
	if len(parsedPlan.Target.Connector) == 0 {
		return Plan{}, errors.New(planTargetConnectorMissingMessage)
	}

	parsedPlan.Source.Configuration = expandConfiguration(parsedPlan.Source.Configuration)
	parsedPlan.Target.Configuration = expandConfiguration(parsedPlan.Target.Configuration)

	for migrationIndex := range parsedPlan.Migrations {
		parsedPlan.Migrations[migrationIndex].Name = strings.TrimSpace(parsedPlan.Migrations[migrationIndex].Name)
	}

	return parsedPlan, nil
}

func (candidate Plan) isBlank() bool {
	return len(candidate.Source.Connector) == 0 && len(candidate.Target.Connector) == 0 && len(candidate.Migrations) == 0
}

func expandConfiguration(configuration connector.Configuration) connector.Configuration {
	if configuration == nil {
		return nil
	}
	expanded := make(connector.Configuration, len(configuration))
	for configurationKey, configurationValue := range configuration {
		if stringValue, isString := configurationValue.(string); isString {
			expanded[configurationKey] = os.ExpandEnv(stringValue)
			continue
		}
		expanded[configurationKey] = configurationValue
	}
	return expanded
}
