// Package pathutils resolves user supplied file paths for plan, configuration and .env files.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant          = "~"
	homePrefixSeparatorsConstant = `/\`
)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// Resolver expands a leading tilde and converts relative paths to absolute ones.
type Resolver struct {
	homeDirectoryProvider HomeDirectoryProvider
	homeDirectory         string
	homeDirectoryError    error
	initializationGuard   sync.Once
}

// NewResolver constructs a Resolver using the operating system home directory lookup.
func NewResolver() *Resolver {
	return NewResolverWithProvider(os.UserHomeDir)
}

// NewResolverWithProvider constructs a Resolver with a custom home directory provider.
func NewResolverWithProvider(provider HomeDirectoryProvider) *Resolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &Resolver{homeDirectoryProvider: provider}
}

// Resolve returns a cleaned absolute path. Blank input is returned unchanged.
func (resolver *Resolver) Resolve(candidatePath string) (string, error) {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return candidatePath, nil
	}
	return filepath.Abs(resolver.ExpandHome(trimmedPath))
}

// ResolveAll resolves every non-blank path, dropping blank ones.
func (resolver *Resolver) ResolveAll(candidatePaths []string) ([]string, error) {
	resolvedPaths := make([]string, 0, len(candidatePaths))
	for _, candidatePath := range candidatePaths {
		if len(strings.TrimSpace(candidatePath)) == 0 {
			continue
		}
		resolvedPath, resolveError := resolver.Resolve(candidatePath)
		if resolveError != nil {
			return nil, resolveError
		}
		resolvedPaths = append(resolvedPaths, resolvedPath)
	}
	return resolvedPaths, nil
}

// ExpandHome replaces a leading "~" or "~/" with the home directory; other paths are returned as-is.
func (resolver *Resolver) ExpandHome(candidatePath string) string {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}
	remainder := strings.TrimPrefix(candidatePath, tildeSymbolConstant)
	if len(remainder) > 0 && !strings.ContainsRune(homePrefixSeparatorsConstant, rune(remainder[0])) {
		return candidatePath
	}

	homeDirectory := resolver.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, strings.TrimLeft(remainder, homePrefixSeparatorsConstant))
}

func (resolver *Resolver) resolveHomeDirectory() string {
	resolver.initializationGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil {
		return ""
	}
	return resolver.homeDirectory
}
