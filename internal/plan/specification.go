package plan

import (
	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/transform"
)

// MigrationSpecification describes one named migration from a source locator to a target locator.
type MigrationSpecification struct {
	Name      string                        `yaml:"name" json:"name"`
	Source    connector.SourceSpecification `yaml:"from" json:"from"`
	Target    connector.TargetSpecification `yaml:"to" json:"to"`
	Transform transform.Specification       `yaml:"properties" json:"properties"`
}

// ConnectorBinding names a registered connector and the configuration used to connect it.
type ConnectorBinding struct {
	Connector     string                  `yaml:"connector" json:"connector"`
	Configuration connector.Configuration `yaml:"configuration" json:"configuration"`
}

// Plan groups the connector bindings with the migrations to run in order.
type Plan struct {
	Source     ConnectorBinding         `yaml:"source" json:"source"`
	Target     ConnectorBinding         `yaml:"target" json:"target"`
	Migrations []MigrationSpecification `yaml:"migrations" json:"migrations"`
}
