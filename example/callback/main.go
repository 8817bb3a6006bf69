package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/EdgeHub/pkg/edgehub"
)

func main() {
	flow, err := edgehub.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(rec edgehub.Record) error {
		switch r := rec.(type) {
		case *edgehub.SensorReading:
			fmt.Printf("%s sensor=%s value=%.2f\n", r.TimeStamp.Format(time.RFC3339Nano), r.Name, r.Value)
		case *edgehub.PerformanceReading:
			fmt.Printf("%s perf cpu=%.1f%% mem=%.1f%% disk=%.1f%%\n",
				r.TimeStamp.Format(time.RFC3339Nano), r.CPUUtil, r.MemUtil, r.DiskUtil)
		case *edgehub.ActuatorResponse:
			fmt.Printf("%s actuator=%s command=%d value=%.2f status=%d\n",
				r.TimeStamp.Format(time.RFC3339Nano), r.Name, r.Cmd, r.Value, r.StatusCode)
		}
		return nil
	}

	if err := flow.Run(ctx, edgehub.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
