package agent

import (
	"sync"

	"github.com/loomworks/loom/analytics"
	"github.com/loomworks/loom/cache"
	"github.com/loomworks/loom/config"
	"github.com/loomworks/loom/executor"
	"github.com/loomworks/loom/logger"
	"github.com/loomworks/loom/node"
	"github.com/loomworks/loom/persistence"
	"github.com/loomworks/loom/persistence/memory"
	"github.com/loomworks/loom/persistence/redis"
	"github.com/loomworks/loom/registry"
	"github.com/loomworks/loom/rest"
)

type Agent struct {
	Config       config.Config
	storage      persistence.Storage
	registry     *registry.Registry
	resultCache  *cache.ResultCache
	collector    analytics.Collector
	executor     *executor.Executor
	httpServer   *rest.Server
	shutdown     bool
	shutdowns    chan struct{}
	shutdownLock sync.Mutex
	wg           sync.WaitGroup
}

func New(conf config.Config) (*Agent, error) {
	a := &Agent{
		Config:    conf,
		shutdowns: make(chan struct{}),
	}
	setup := []func() error{
		a.setupStorage,
		a.setupRegistry,
		a.setupCache,
		a.setupCollector,
		a.setupExecutor,
		a.setupHttpServer,
	}
	for _, fn := range setup {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *Agent) setupStorage() error {
	switch a.Config.StorageType {
	case config.STORAGE_TYPE_REDIS:
		a.storage = redis.NewStorage(redis.Config{
			Addrs:     a.Config.RedisConfig.Addrs,
			Namespace: a.Config.RedisConfig.Namespace,
		})
	default:
		a.storage = memory.NewStorage()
	}
	return nil
}

func (a *Agent) setupRegistry() error {
	a.registry = registry.New()
	for _, desc := range node.Builtins() {
		if err := a.registry.Register(desc); err != nil {
			return err
		}
	}
	return nil
}

func (a *Agent) setupCache() error {
	a.resultCache = cache.NewResultCache(a.Config.CacheMaxEntries, a.Config.CacheDefaultTTL)
	return nil
}

func (a *Agent) setupCollector() error {
	collectorType := analytics.NOOP_DATA_COLLECTOR
	if a.Config.AnalyticsFile != "" {
		collectorType = analytics.LOG_FILE_DATA_COLLECTOR
	}
	collector, err := analytics.NewCollector(analytics.DataCollectorConfig{
		FileName:      a.Config.AnalyticsFile,
		CollectorType: collectorType,
	})
	if err != nil {
		return err
	}
	a.collector = collector
	return nil
}

func (a *Agent) setupExecutor() error {
	a.executor = executor.New(a.storage, a.registry, a.resultCache, a.collector, a.Config, &a.wg)
	return nil
}

func (a *Agent) setupHttpServer() error {
	var err error
	a.httpServer, err = rest.NewServer(a.Config.HttpPort, a.storage, a.registry, a.executor, a.resultCache)
	if err != nil {
		return err
	}
	return nil
}

func (a *Agent) Start() error {
	a.executor.Start()
	go func() {
		if err := a.httpServer.Start(); err != nil {
			_ = a.Shutdown()
			panic(err)
		}
	}()
	return nil
}

func (a *Agent) Shutdown() error {
	logger.Info("shutting down server")
	a.shutdownLock.Lock()
	defer a.shutdownLock.Unlock()
	if a.shutdown {
		return nil
	}
	a.shutdown = true
	close(a.shutdowns)

	shutdown := []func() error{
		a.httpServer.Stop,
		a.executor.Stop,
	}
	for _, fn := range shutdown {
		if err := fn(); err != nil {
			return err
		}
	}
	logger.Info("waiting for all services to shutdown...")
	a.wg.Wait()
	return nil
}
