package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Strob0t/PMForge/internal/adapter/agentapi"
	"github.com/Strob0t/PMForge/internal/adapter/otel"
	"github.com/Strob0t/PMForge/internal/adapter/pmapi"
	"github.com/Strob0t/PMForge/internal/adapter/ristretto"
	"github.com/Strob0t/PMForge/internal/adapter/slack"
	"github.com/Strob0t/PMForge/internal/adapter/terminal"
	"github.com/Strob0t/PMForge/internal/config"
	"github.com/Strob0t/PMForge/internal/domain/agent"
	"github.com/Strob0t/PMForge/internal/domain/update"
	"github.com/Strob0t/PMForge/internal/eventbus"
	"github.com/Strob0t/PMForge/internal/logger"
	"github.com/Strob0t/PMForge/internal/port/notifier"
	"github.com/Strob0t/PMForge/internal/resilience"
	"github.com/Strob0t/PMForge/internal/workspace"
)

// templateCacheBytes bounds the in-process agent template cache.
const templateCacheBytes = 4 << 20

// app holds the client-side object graph shared by the commands.
type app struct {
	cfg       *config.Config
	api       *pmapi.Client
	agent     *agentapi.Client
	bus       *eventbus.Bus
	refresher *workspace.Refresher
	alerts    *workspace.AsyncNotifier

	cleanup []func()
}

// loadApp reads the configuration and wires the clients, the event bus and
// the notification pipeline.
func loadApp() (*app, error) {
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logCfg := cfg.Logging
	if !verbose {
		logCfg.Level = "warn"
	}
	log, closeLog := logger.NewWithWriter(logCfg, os.Stderr)
	slog.SetDefault(log)

	metrics, err := otel.NewMetrics()
	if err != nil {
		closeLog.Close()
		return nil, fmt.Errorf("metrics: %w", err)
	}

	api := pmapi.NewClient(cfg.Client.APIURL, cfg.Client.RequestTimeout)
	api.SetSource(update.SourceManual)
	api.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
		resilience.WithName("pmapi"),
		resilience.WithFailurePredicate(pmapi.IsBreakerFailure),
	))

	templates, err := ristretto.New(templateCacheBytes)
	if err != nil {
		closeLog.Close()
		return nil, fmt.Errorf("template cache: %w", err)
	}
	agentClient := agentapi.NewClient(cfg.Client.AgentURL, cfg.Client.AgentTimeout,
		agentapi.WithBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout,
			resilience.WithName("agent"),
			resilience.WithFailurePredicate(agentapi.IsBreakerFailure),
		)),
		agentapi.WithTemplateCache(templates),
		agentapi.WithMetrics(metrics),
	)

	bus := eventbus.New(eventbus.WithMetrics(metrics))
	sinks := []notifier.Notifier{terminal.NewNotifier(os.Stderr)}
	if cfg.Client.SlackWebhook != "" {
		sinks = append(sinks, slack.NewNotifier(cfg.Client.SlackWebhook))
	}
	alerts := workspace.NewAsyncNotifier(cfg.Client.NotifyBuffer, sinks...)

	a := &app{
		cfg:       cfg,
		api:       api,
		agent:     agentClient,
		bus:       bus,
		refresher: workspace.NewRefresher(api, bus, workspace.WithRefreshMetrics(metrics)),
		alerts:    alerts,
	}
	a.cleanup = []func(){templates.Close, closeLog.Close}
	return a, nil
}

// session opens a workspace session for projectID.
func (a *app) session(projectID, templateType string, agentType agent.Type) *workspace.Session {
	return workspace.NewSession(workspace.SessionConfig{
		ProjectID:    projectID,
		TemplateType: templateType,
		AgentType:    agentType,
	}, a.api, a.agent, a.bus, a.refresher, a.alerts)
}

// parseAgentType maps the --agent flag.
func parseAgentType(s string) (agent.Type, error) {
	switch t := agent.Type(strings.ToLower(s)); t {
	case agent.TypePRD, agent.TypeSpec, agent.TypeRoadmap:
		return t, nil
	default:
		return "", fmt.Errorf("unknown agent %q (want prd, spec or roadmap)", s)
	}
}

// close drains pending notifications before releasing resources.
func (a *app) close() {
	a.alerts.Close()
	if n := a.alerts.Dropped(); n > 0 {
		slog.Warn("notifications dropped", "count", n)
	}
	for _, fn := range a.cleanup {
		fn()
	}
}
