// Package logger provee un logger Zap singleton con scoping por contexto.
//
//   - Singleton: una sola instancia global inicializada con Init().
//   - Context scoping: cada request puede llevar un logger con campos propios
//     (request_id, user_id) sin crear un core nuevo.
//   - Environments: "dev" usa consola con colores, "prod" usa JSON.
//
// Inicialización (una vez en main):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})
//	defer logger.Sync()
//
// En handlers/services:
//
//	log := logger.From(ctx)
//	log.Info("license validated", logger.LicenseID(id))
package logger
