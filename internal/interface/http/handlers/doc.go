// Package handlers contains reusable HTTP pieces: health checks, middleware
// and the Telegram webhook endpoint.
//
// # Health Checks
//
// Named checks run in parallel with a per-check timeout:
//
//	checker := handlers.NewCompositeHealthChecker(version)
//	checker.AddCheck("postgres", handlers.NewDatabaseCheck(conn))
//	checker.AddCheck("redis", handlers.NewCacheCheck(cache))
//
// # Webhook
//
// NewTelegramWebhook verifies the secret token header, decodes the update
// and always answers 200 so Telegram does not redeliver it.
//
// # Middleware
//
//	r.Use(handlers.RequestLogger(log))
//	r.Use(handlers.Recoverer(log))
//	r.Use(handlers.SecurityHeaders)
//	admin.Use(handlers.AdminAuth(tokenHash))
package handlers
