package ports

// Metric names understood by Observability implementations.
const (
	MetricSensorReadings    = "edgehub_sensor_readings_total"
	MetricPerfReadings      = "edgehub_perf_readings_total"
	MetricActuatorResponses = "edgehub_actuator_responses_total"
	MetricActuatorCommands  = "edgehub_actuator_commands_total"
	MetricPublished         = "edgehub_messages_published_total"
	MetricPublishFailures   = "edgehub_publish_failures_total"
	MetricInbound           = "edgehub_inbound_messages_total"
	MetricSchedulerSkipped  = "edgehub_scheduler_skipped_total"
	MetricSnapshotRows      = "edgehub_snapshot_rows_total"

	GaugeCPU           = "edgehub_cpu_utilization_percent"
	GaugeMemory        = "edgehub_memory_utilization_percent"
	GaugeDisk          = "edgehub_disk_utilization_percent"
	GaugeCacheEntries  = "edgehub_cache_entries"
	GaugeSnapshotQueue = "edgehub_snapshot_queue_length"

	LatencyPollCycle     = "edgehub_poll_cycle_seconds"
	LatencyPublish       = "edgehub_publish_latency_seconds"
	LatencySnapshotFlush = "edgehub_snapshot_flush_seconds"
)
