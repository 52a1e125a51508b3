package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/loomworks/loom/agent"
	"github.com/loomworks/loom/config"
	"github.com/loomworks/loom/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}

type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("storage-impl", "memory", "implementation of underline storage")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "loom", "namespace used in storage")
	cmd.Flags().Int("worker-count", 0, "max concurrent node invocations, 0 = number of cpus")
	cmd.Flags().Bool("cache-enabled", true, "master switch for the node result cache")
	cmd.Flags().Int("cache-max-entries", 1000, "result cache entry cap")
	cmd.Flags().Duration("cache-ttl", time.Hour, "default ttl for cacheable node results")
	cmd.Flags().Duration("execution-timeout", 0, "default deadline for executions, 0 = unlimited")
	cmd.Flags().Bool("continue-on-error", false, "continue past failed nodes instead of failing fast")
	cmd.Flags().String("analytics-file", "", "file to record per node analytics, empty = disabled")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn, error")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// no config file is fine when none was named; a named file that
		// cannot be read is an error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return err
		}
	}

	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.StorageType = config.StorageType(viper.GetString("storage-impl"))
	c.cfg.RedisConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisConfig.Namespace = viper.GetString("namespace")
	c.cfg.WorkerCount = viper.GetInt("worker-count")
	c.cfg.CacheEnabled = viper.GetBool("cache-enabled")
	c.cfg.CacheMaxEntries = viper.GetInt("cache-max-entries")
	c.cfg.CacheDefaultTTL = viper.GetDuration("cache-ttl")
	c.cfg.ExecutionTimeout = viper.GetDuration("execution-timeout")
	c.cfg.ContinueOnError = viper.GetBool("continue-on-error")
	c.cfg.AnalyticsFile = viper.GetString("analytics-file")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	logger.InitLogger(viper.GetString("log-level"))
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "loom",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
