package migration

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/dbmigrator/internal/connector"
	"github.com/temirov/dbmigrator/internal/plan"
	"github.com/temirov/dbmigrator/internal/registry"
	pathutils "github.com/temirov/dbmigrator/internal/utils/path"
	"github.com/temirov/dbmigrator/internal/validation"
)

const (
	planPathRequiredMessageConstant        = "migration plan path required; provide a positional argument or configure tools.migration.plan"
	planPathErrorTemplateConstant          = "unable to resolve migration plan path: %w"
	planLoadErrorTemplateConstant          = "unable to load migration plan: %w"
	registryBuildErrorTemplateConstant     = "unable to build registry: %w"
	connectErrorTemplateConstant           = "unable to connect %s connector %q: %w"
	validationServiceErrorTemplateConstant = "unable to construct validation service: %w"
	sourceSideConstant                     = "source"
	targetSideConstant                     = "target"
	unknownConnectorMessageConstant        = "connector is not registered"
	connectedMessageConstant               = "connector connected"
	closeFailedMessageConstant             = "connector close failed"
	planLoadedMessageConstant              = "migration plan loaded"
	planPathFieldConstant                  = "plan_path"
	migrationCountFieldConstant            = "migration_count"
	sideFieldConstant                      = "side"
	connectorFieldConstant                 = "connector"
	databaseFieldConstant                  = "database"
)

var errPlanPathRequired = errors.New(planPathRequiredMessageConstant)

// session binds a loaded plan to its connected source and target connectors.
// A side naming an unregistered connector stays nil so validation can report it.
type session struct {
	logger   *zap.Logger
	registry *registry.Registry
	plan     plan.Plan
	source   connector.Connector
	target   connector.Connector
}

func openSession(executionContext context.Context, logger *zap.Logger, registryFactory RegistryFactory, planPath string) (*session, error) {
	if len(planPath) == 0 {
		return nil, errPlanPathRequired
	}

	resolvedPath, resolveError := pathutils.NewResolver().Resolve(planPath)
	if resolveError != nil {
		return nil, fmt.Errorf(planPathErrorTemplateConstant, resolveError)
	}

	migrationPlan, loadError := plan.LoadPlan(resolvedPath)
	if loadError != nil {
		return nil, fmt.Errorf(planLoadErrorTemplateConstant, loadError)
	}
	logger.Info(planLoadedMessageConstant, zap.String(planPathFieldConstant, resolvedPath), zap.Int(migrationCountFieldConstant, len(migrationPlan.Migrations)))

	registryInstance, registryError := registryFactory(logger)
	if registryError != nil {
		return nil, fmt.Errorf(registryBuildErrorTemplateConstant, registryError)
	}

	openedSession := &session{logger: logger, registry: registryInstance, plan: migrationPlan}

	source, sourceError := openedSession.connect(executionContext, sourceSideConstant, migrationPlan.Source)
	if sourceError != nil {
		return nil, sourceError
	}
	openedSession.source = source

	target, targetError := openedSession.connect(executionContext, targetSideConstant, migrationPlan.Target)
	if targetError != nil {
		openedSession.close(executionContext)
		return nil, targetError
	}
	openedSession.target = target

	return openedSession, nil
}

func (openedSession *session) connect(executionContext context.Context, side string, binding plan.ConnectorBinding) (connector.Connector, error) {
	connectorInstance, registered := openedSession.registry.NewConnector(binding.Connector)
	if !registered {
		openedSession.logger.Warn(unknownConnectorMessageConstant, zap.String(sideFieldConstant, side), zap.String(connectorFieldConstant, binding.Connector))
		return nil, nil
	}

	if connectError := connectorInstance.Connect(executionContext, binding.Configuration); connectError != nil {
		return nil, fmt.Errorf(connectErrorTemplateConstant, side, binding.Connector, connectError)
	}

	openedSession.logger.Info(
		connectedMessageConstant,
		zap.String(sideFieldConstant, side),
		zap.String(connectorFieldConstant, binding.Connector),
		zap.String(databaseFieldConstant, connectorInstance.DatabaseName()),
	)
	return connectorInstance, nil
}

func (openedSession *session) validate() ([]connector.ValidationError, error) {
	service, serviceError := validation.NewService(openedSession.registry, openedSession.source, openedSession.target)
	if serviceError != nil {
		return nil, fmt.Errorf(validationServiceErrorTemplateConstant, serviceError)
	}
	return service.Validate(openedSession.plan.Migrations), nil
}

func (openedSession *session) close(executionContext context.Context) {
	for side, connectorInstance := range map[string]connector.Connector{sourceSideConstant: openedSession.source, targetSideConstant: openedSession.target} {
		if connectorInstance == nil {
			continue
		}
		if closeError := connectorInstance.Close(context.WithoutCancel(executionContext)); closeError != nil {
			openedSession.logger.Warn(closeFailedMessageConstant, zap.String(sideFieldConstant, side), zap.Error(closeError))
		}
	}
}
