package scenario

// PaymentScenario returns the online payment system scenario.
// Simulates: gateway → payment-service → fraud-detection/payment-processor → external APIs
func PaymentScenario() *Scenario {
	return &Scenario{
		Name:        "payment",
		Description: "Online payment system with fraud detection and external payment processor",
		Root: Operation{
			Source:   "payment-gateway.http",
			Name:     "POST /api/v1/checkout",
			Kind:     KindServer,
			Duration: Duration(180_000_000), // 180ms
			Tags:     HTTPServerTags("POST", "/api/v1/checkout", "/api/v1/checkout", 200),
			Children: []Operation{
				{
					Source:   "payment-service.process",
					Name:     "ProcessPayment",
					Kind:     KindInternal,
					Duration: Duration(150_000_000), // 150ms
					Tags: map[string]string{
						"payment.amount":   "99.99",
						"payment.currency": "USD",
					},
					Children: []Operation{
						{
							Source:   "fraud-detection.grpc",
							Name:     "FraudDetection/AnalyzeTransaction",
							Kind:     KindClient,
							Duration: Duration(45_000_000), // 45ms
							Tags:     RPCTags("grpc", "FraudDetection", "AnalyzeTransaction"),
							Children: []Operation{
								{
									Source:   "ml-service.grpc",
									Name:     "MLService/Predict",
									Kind:     KindClient,
									Duration: Duration(25_000_000), // 25ms
									Tags:     with(RPCTags("grpc", "MLService", "Predict"), "ml.model", "fraud-detector-v2"),
								},
							},
						},
						{
							Source:      "payment-processor.charge",
							Name:        "ChargeCard",
							Kind:        KindInternal,
							Duration:    Duration(80_000_000), // 80ms
							ErrorRate:   0.05,                 // 5% error rate
							ErrorStatus: "payment declined",
							Children: []Operation{
								{
									Source:   "payment-processor.http",
									Name:     "POST /v2/charges",
									Kind:     KindClient,
									Duration: Duration(65_000_000), // 65ms
									Tags:     HTTPClientTags("POST", "https://api.stripe.com/v2/charges", 200),
								},
							},
						},
					},
				},
				{
					Source:   "notification-service.nats",
					Name:     "send notifications",
					Kind:     KindProducer,
					Duration: Duration(15_000_000), // 15ms
					Tags:     MessagingTags("nats", "notifications", "publish"),
				},
			},
		},
	}
}
