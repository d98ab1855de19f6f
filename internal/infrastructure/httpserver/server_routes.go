package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/", s.welcome)
	s.echo.GET("/ping", s.ping)
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")

	auth := api.Group("/auth")
	auth.GET("/verify-submitted-email", s.verifySubmittedEmail)
	auth.POST("/verify-submitted-email", s.verifySubmittedEmail)
	auth.POST("/refresh", s.refreshCredentials)

	// Stripe calls this without a bearer token; the signature header authenticates it.
	api.POST("/payments/webhook", s.billingWebhook)

	protected := api.Group("")
	protected.Use(s.middleware.JWT.RequireJWT())

	protected.POST("/auth/logout", s.logout)
	protected.POST("/users/me/submit-email", s.submitEmail, s.middleware.RateLimit.Handler())
	protected.POST("/payments/create-checkout-session", s.createCheckoutSession)
	protected.GET("/courses/:course_id/entitlement", s.courseEntitlement)
}
