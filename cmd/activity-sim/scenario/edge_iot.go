package scenario

// EdgeIoTScenario returns the edge device management scenario.
// Simulates: device-gateway → device-registry/telemetry-processor → databases
func EdgeIoTScenario() *Scenario {
	return &Scenario{
		Name:        "edge-iot",
		Description: "Edge device telemetry processing with time-series database and rule engine",
		Root: Operation{
			Source:   "device-gateway.mqtt",
			Name:     "device/+/telemetry receive",
			Kind:     KindConsumer,
			Duration: Duration(35_000_000), // 35ms
			Tags:     with(MessagingTags("mqtt", "device/+/telemetry", "receive"), "batch.size", "10"),
			Children: []Operation{
				{
					Source:   "device-registry.grpc",
					Name:     "DeviceRegistry/ValidateDevice",
					Kind:     KindClient,
					Duration: Duration(8_000_000), // 8ms
					Tags:     RPCTags("grpc", "DeviceRegistry", "ValidateDevice"),
					Children: []Operation{
						{
							Source:   "device-registry.redis",
							Name:     "GET devices",
							Kind:     KindClient,
							Duration: Duration(2_000_000), // 2ms
							Tags:     DBTags("redis", "devices", "GET device:123"),
						},
					},
				},
				{
					Source:   "telemetry-processor.batch",
					Name:     "ProcessBatch",
					Kind:     KindInternal,
					Duration: Duration(20_000_000), // 20ms
					Children: []Operation{
						{
							Source:   "telemetry-processor.db",
							Name:     "INSERT telemetry",
							Kind:     KindClient,
							Duration: Duration(12_000_000), // 12ms
							Tags:     DBTags("timescaledb", "telemetry", "INSERT INTO metrics ..."),
						},
						{
							Source:   "rule-engine.grpc",
							Name:     "RuleEngine/EvaluateAlerts",
							Kind:     KindClient,
							Duration: Duration(5_000_000), // 5ms
							Tags:     with(RPCTags("grpc", "RuleEngine", "EvaluateAlerts"), "rules.evaluated", "3"),
						},
					},
				},
			},
		},
	}
}
