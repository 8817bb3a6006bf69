package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghalamif/EdgeHub"
	"github.com/ghalamif/EdgeHub/internal/ports"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("edgehub %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to device configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	flow, err := edgehub.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return flow.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := edgehub.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	fmt.Printf("config %s looks good (location=%s backend=%s poll=%s)\n",
		*cfgPath, cfg.Device.LocationID, cfg.Device.Backend, cfg.Device.PollInterval)
	return nil
}

// statTargets are printed in this order by the stats command.
var statTargets = []struct {
	metric string
	label  string
}{
	{ports.MetricSensorReadings, "sensor"},
	{ports.MetricPerfReadings, "perf"},
	{ports.MetricActuatorResponses, "actuator"},
	{ports.MetricPublished, "published"},
	{ports.MetricPublishFailures, "publish_failed"},
	{ports.GaugeCPU, "cpu"},
	{ports.GaugeMemory, "mem"},
	{ports.GaugeCacheEntries, "cached"},
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

func printMetricsSnapshot(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	values := make(map[string]float64, len(statTargets))
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, t := range statTargets {
			if strings.HasPrefix(line, t.metric+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, t.metric+" %f", &value); err == nil {
					values[t.metric] = value
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("[" + time.Now().Format(time.RFC3339) + "]")
	for _, t := range statTargets {
		fmt.Fprintf(&b, " %s=%.2f", t.label, values[t.metric])
	}
	fmt.Println(b.String())
	return nil
}

func printUsage() {
	fmt.Printf(`EdgeHub CLI

Usage:
  edgehub <command> [flags]

Commands:
  run        Start the device hub using the provided config
  validate   Load and validate a config file without starting the hub
  stats      Poll the Prometheus metrics endpoint and print live counters

Examples:
  edgehub run -config ./data/config.yaml
  edgehub validate -config ./data/config.yaml
  edgehub stats -url http://localhost:9100/metrics -interval 1s
`)
}
