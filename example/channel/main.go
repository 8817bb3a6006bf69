package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/EdgeHub"
)

func main() {
	flow, err := edgehub.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, records, closeRecords := edgehub.NewChannelListener("fanout", 32)
	defer closeRecords()

	go fanoutWorker("telemetry", records)

	if err := flow.Run(ctx, edgehub.StreamOutListener(listener)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func fanoutWorker(name string, records <-chan edgehub.Record) {
	counts := make(map[edgehub.RecordKind]int)
	for rec := range records {
		counts[rec.RecordKind()]++
		fmt.Printf("[%s] %s/%s at %s (seen %d)\n", name, rec.RecordKind(), rec.RecordName(),
			time.Now().Format(time.RFC3339), counts[rec.RecordKind()])
	}
}
