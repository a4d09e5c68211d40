package scenario

// EcommerceScenario returns the e-commerce order flow scenario.
// Simulates: api-gateway → order-service → inventory/pricing → database/event-bus
func EcommerceScenario() *Scenario {
	return &Scenario{
		Name:        "ecommerce",
		Description: "E-commerce order creation with inventory reservation and event publishing",
		Root: Operation{
			Source:   "api-gateway.http",
			Name:     "POST /orders",
			Kind:     KindServer,
			Duration: Duration(120_000_000), // 120ms
			Tags:     HTTPServerTags("POST", "/orders", "/orders", 201),
			Children: []Operation{
				{
					Source:   "order-service.create",
					Name:     "CreateOrder",
					Kind:     KindInternal,
					Duration: Duration(100_000_000), // 100ms
					Tags:     map[string]string{"order.items_count": "3"},
					Children: []Operation{
						{
							Source:      "inventory-service.grpc",
							Name:        "InventoryService/ReserveStock",
							Kind:        KindClient,
							Duration:    Duration(25_000_000), // 25ms
							Tags:        RPCTags("grpc", "InventoryService", "ReserveStock"),
							ErrorRate:   0.02, // 2% out of stock
							ErrorStatus: "insufficient stock",
							Children: []Operation{
								{
									Source:   "inventory-service.db",
									Name:     "SELECT inventory",
									Kind:     KindClient,
									Duration: Duration(8_000_000), // 8ms
									Tags:     DBTags("postgresql", "inventory", "SELECT available_qty FROM stock WHERE sku IN (...)"),
								},
							},
						},
						{
							Source:   "pricing-service.grpc",
							Name:     "PricingService/CalculateTotal",
							Kind:     KindClient,
							Duration: Duration(15_000_000), // 15ms
							Tags:     with(RPCTags("grpc", "PricingService", "CalculateTotal"), "discount.percent", "10"),
						},
						{
							Source:   "order-service.db",
							Name:     "INSERT orders",
							Kind:     KindClient,
							Duration: Duration(18_000_000), // 18ms
							Tags:     DBTags("postgresql", "orders", "INSERT INTO orders (...) VALUES (...)"),
						},
					},
				},
				{
					Source:   "order-service.nats",
					Name:     "order.created publish",
					Kind:     KindProducer,
					Duration: Duration(5_000_000), // 5ms
					Tags:     MessagingTags("nats", "order.created", "publish"),
				},
			},
		},
	}
}

// HealthCheckScenario returns a simple health check scenario.
// Useful for testing OTLP connectivity.
func HealthCheckScenario() *Scenario {
	return &Scenario{
		Name:        "health-check",
		Description: "Simple HTTP health check for testing OTLP connectivity",
		Root: Operation{
			Source:   "health-service.http",
			Name:     "GET /health",
			Kind:     KindServer,
			Duration: Duration(5_000_000), // 5ms
			Tags:     HTTPServerTags("GET", "/health", "/health", 200),
		},
	}
}
