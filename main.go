package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	c "github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/config"
	d "github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/dialer"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/hook"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
	m "github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/metrics"
	r "github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/resolver"
	s "github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/spy"
)

var (
	configPath string

	service              string
	metricName           string
	policy               string
	nameserver           string
	prometheusListenPort uint
	interval             time.Duration
	once                 bool
)

func loadConfig() c.Config {
	config := c.Default()

	if configPath != "" {
		var err error
		config, err = c.Load(configPath)
		if err != nil {
			log.Fatalf("Could not load config: %s", err)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "service":
			config.Service = service
		case "metric-name":
			config.MetricName = metricName
		case "policy":
			config.Policy = policy
		case "nameserver":
			config.Nameserver = nameserver
		case "prometheus-listen-port":
			config.PrometheusListenPort = prometheusListenPort
		case "interval":
			config.Interval = interval
		}
	})
	config.URLs = append(config.URLs, flag.Args()...)

	if err := config.Validate(); err != nil {
		log.Fatalf("Flag invalid: %s", err)
	}

	return config
}

func fetch(ctx context.Context, client *http.Client, url string, logger lager.Logger) {
	lsession := logger.Session("fetch", lager.Data{"url": url})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		lsession.Error("err-new-request", err)
		return
	}

	resp, err := client.Do(req)
	if err != nil {
		lsession.Info("failed", lager.Data{"error": err.Error()})
		return
	}
	resp.Body.Close()

	lsession.Info("fetched", lager.Data{"status": resp.StatusCode})
}

// fetchAll fetches every url once. Connections made during the round are
// announced with the round's id as their trigger.
func fetchAll(ctx context.Context, tap *hook.Tap, client *http.Client, urls []string, logger lager.Logger) {
	round := tap.NextID()
	ctx = hook.WithTrigger(ctx, round)
	logger = logger.Session("round", lager.Data{"trigger-id": round})

	var wg sync.WaitGroup
	for _, url := range urls {
		wg.Add(1)
		go func(url string) {
			defer wg.Done()
			fetch(ctx, client, url, logger)
		}(url)
	}
	wg.Wait()
}

// awaitDelivery waits until every connection announced so far has reached
// the spy's registry, or the timeout passes.
func awaitDelivery(spy *s.Spy, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for spy.Pending() > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
	return true
}

func main() {
	flag.StringVar(&configPath, "config", "", "Path to a YAML config file")

	flag.StringVar(&service, "service", "", "Name of the service whose outbound hosts are observed")
	flag.StringVar(&metricName, "metric-name", s.DefaultMetricName, "Name of the host resolution counter")
	flag.StringVar(&policy, "policy", string(s.PolicyDedup), "Reporting policy: dedup or pass-through")
	flag.StringVar(&nameserver, "nameserver", "", "Nameserver (host:port) to resolve with instead of the system resolver")
	flag.UintVar(
		&prometheusListenPort,
		"prometheus-listen-port", 9276,
		"Port on which prometheus metrics will be exposed via /metrics",
	)
	flag.DurationVar(&interval, "interval", 60*time.Second, "Interval between fetches of the URLs")
	flag.BoolVar(&once, "once", false, "Fetch the URLs once, print the hosts and exit")
	flag.Parse()

	config := loadConfig()

	logger := lager.NewLogger("hostname-spy")
	logger.RegisterSink(lager.NewWriterSink(os.Stdout, lager.INFO))

	logger.Info("configured", lager.Data{
		"service":                config.Service,
		"metric-name":            config.MetricName,
		"policy":                 config.Policy,
		"nameserver":             config.Nameserver,
		"prometheus-listen-port": config.PrometheusListenPort,
		"urls":                   config.URLs,
	})

	var resolver r.Resolver
	if config.Nameserver != "" {
		resolver = r.NewDNSResolver(config.Nameserver, config.DNSTimeout)
	} else {
		resolver = r.NewResolver()
	}

	tap := hook.NewTap(logger)
	dialer := d.New(tap, resolver, logger)

	opts, err := config.SpyOptions()
	if err != nil {
		log.Fatalf("Flag invalid: %s", err)
	}

	spy, err := s.New(tap, config.Service, logger, opts...)
	if err != nil {
		log.Fatalf("Could not create spy: %s", err)
	}

	spy.Subscribe(func(record lookup.Record) {
		logger.Info("host", lager.Data{"record": record})
	})

	bridge, err := m.NewBridge(spy, prometheus.DefaultRegisterer, logger)
	if err != nil {
		log.Fatalf("Could not create metrics bridge: %s", err)
	}
	bridge.Start()

	client := &http.Client{Transport: dialer.Transport(), Timeout: 30 * time.Second}

	if once {
		fetchAll(context.Background(), tap, client, config.URLs, logger)
		if !awaitDelivery(spy, 5*time.Second) {
			logger.Info("undelivered", lager.Data{"pending": spy.Pending()})
		}
		bridge.Stop()

		out, err := json.MarshalIndent(spy, "", "  ")
		if err != nil {
			log.Fatalf("Could not marshal hosts: %s", err)
		}
		fmt.Println(string(out))
		return
	}

	ctx, shutdown := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Reset(syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		shutdown()
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/hosts", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(spy); err != nil {
			logger.Error("err-encode-hosts", err)
		}
	})

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.PrometheusListenPort),
		Handler: mux,
	}

	go func() {
		err := metricsServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Error("err-fatal-metrics-server", err)
			shutdown()
		}
	}()

	for {
		fetchAll(ctx, tap, client, config.URLs, logger)

		select {
		case <-ctx.Done():
			logger.Info("shutdown")
			bridge.Stop()
			spy.Disable()
			metricsServer.Close()
			return
		case <-time.After(config.Interval):
		}
	}
}
