package http_api

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.GET("/health", s.health)

	s.router.POST("/api/v1/quote", s.quote)
	s.router.POST("/api/v1/checkout", s.checkout)
	s.router.POST("/api/v1/payments/:id/confirm", s.confirmPayment)
	s.router.GET("/api/v1/payments/:id", s.getPayment)
	s.router.GET("/api/v1/payments", s.listPayments)

	s.router.POST("/api/v1/admin/retry-sweep", s.triggerRetrySweep)
}
