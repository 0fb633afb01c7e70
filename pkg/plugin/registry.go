package plugin

import (
	"fmt"
	"sync"

	"github.com/lanescope/lanescope/internal/core"
)

// ReporterFactory constructs a fresh reporter instance.
type ReporterFactory func() Reporter

var (
	mu        sync.RWMutex
	reporters = make(map[string]ReporterFactory)
)

// RegisterReporter registers a reporter factory under a name. Registering
// the same name twice panics; plugin names are wired at init time and a
// collision is a programming error.
func RegisterReporter(name string, factory ReporterFactory) {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := reporters[name]; ok {
		panic(fmt.Sprintf("plugin: reporter %q registered twice", name))
	}
	reporters[name] = factory
}

// GetReporterFactory looks up a registered reporter factory.
func GetReporterFactory(name string) (ReporterFactory, error) {
	mu.RLock()
	defer mu.RUnlock()
	factory, ok := reporters[name]
	if !ok {
		return nil, fmt.Errorf("%w: reporter %q", core.ErrPluginNotFound, name)
	}
	return factory, nil
}

// ReporterNames lists registered reporter names.
func ReporterNames() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(reporters))
	for name := range reporters {
		names = append(names, name)
	}
	return names
}
